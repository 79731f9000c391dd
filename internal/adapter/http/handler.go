package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/avencia/tenantcore/internal/app"
	"github.com/avencia/tenantcore/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ResourceResponse is the API representation of a resource.
type ResourceResponse struct {
	ID        string            `json:"id" doc:"Unique identifier"`
	Type      string            `json:"type" doc:"Resource type"`
	Status    string            `json:"status" doc:"Workflow status"`
	Fields    map[string]any    `json:"fields" doc:"Type-specific fields"`
	Stamps    map[string]string `json:"stamps" doc:"Workflow timestamps (ISO 8601)"`
	CreatedAt string            `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string            `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toResourceResponse(r domain.Resource) ResourceResponse {
	stamps := make(map[string]string, len(r.Stamps))
	for name, at := range r.Stamps {
		stamps[name] = at.Format(timeFormat)
	}
	fields := r.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return ResourceResponse{
		ID:        r.ID,
		Type:      string(r.Type),
		Status:    string(r.Status),
		Fields:    fields,
		Stamps:    stamps,
		CreatedAt: r.CreatedAt.Format(timeFormat),
		UpdatedAt: r.UpdatedAt.Format(timeFormat),
	}
}

// WalletResponse is the API representation of a wallet.
type WalletResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	OwnerID   string `json:"owner_id" doc:"Wallet owner"`
	Balance   int64  `json:"balance" doc:"Balance in integer minor units"`
	Currency  string `json:"currency" doc:"ISO currency code"`
	Status    string `json:"status" doc:"Wallet status"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toWalletResponse(w domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Balance:   w.Balance,
		Currency:  w.Currency,
		Status:    w.Status,
		CreatedAt: w.CreatedAt.Format(timeFormat),
		UpdatedAt: w.UpdatedAt.Format(timeFormat),
	}
}

// TransactionResponse is the API representation of one ledger entry.
type TransactionResponse struct {
	ID          string `json:"id" doc:"Unique identifier"`
	Direction   string `json:"direction" doc:"credit or debit" enum:"credit,debit"`
	Amount      int64  `json:"amount" doc:"Amount in integer minor units"`
	Description string `json:"description,omitempty" doc:"Free-form description"`
	Reference   string `json:"reference,omitempty" doc:"External reference"`
	CreatedAt   string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toTransactionResponse(tx domain.WalletTransaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Direction:   string(tx.Direction),
		Amount:      tx.Amount,
		Description: tx.Description,
		Reference:   tx.Reference,
		CreatedAt:   tx.CreatedAt.Format(timeFormat),
	}
}

// --- Create Resource ---

type CreateResourceInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	Body      struct {
		Type   string         `json:"type" minLength:"1" doc:"Resource type" enum:"appointment,parcel,kitchen_order"`
		Fields map[string]any `json:"fields,omitempty" doc:"Type-specific fields"`
	}
}

type CreateResourceOutput struct {
	Body ResourceResponse
}

// --- Get Resource ---

type GetResourceInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	ID        string `path:"id" doc:"Resource ID"`
}

type GetResourceOutput struct {
	Body ResourceResponse
}

// --- List Resources ---

type ListResourcesInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	Type      string `query:"type" required:"true" doc:"Resource type" enum:"appointment,parcel,kitchen_order"`
	Status    string `query:"status" required:"false" doc:"Filter by status"`
	Field     string `query:"field" required:"false" doc:"Exact-match field name"`
	Value     string `query:"value" required:"false" doc:"Exact-match field value"`
	RangeFrom string `query:"created_from" required:"false" doc:"Minimum created_at (ISO 8601)"`
	RangeTo   string `query:"created_to" required:"false" doc:"Maximum created_at (ISO 8601)"`
	Search    string `query:"search" required:"false" doc:"Case-insensitive term over the type's search fields"`
	Sort      string `query:"sort" required:"false" doc:"Sort field"`
	Order     string `query:"order" required:"false" doc:"Sort direction" enum:"asc,desc"`
	Page      int    `query:"page" required:"false" default:"1" doc:"Page number (1-based)"`
	PerPage   int    `query:"per_page" required:"false" default:"25" doc:"Items per page"`
	Limit     int    `query:"limit" required:"false" doc:"Top-N mode: skip paging metadata"`
}

type PageResponse struct {
	Items      []ResourceResponse `json:"items"`
	TotalCount int                `json:"total_count" doc:"Total matching rows"`
	Page       int                `json:"page" doc:"Current page number"`
	PerPage    int                `json:"per_page" doc:"Items per page"`
	LastPage   bool               `json:"last_page" doc:"No further pages"`
}

type ListResourcesOutput struct {
	Body PageResponse
}

// --- Transition ---

type TransitionInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	ID        string `path:"id" doc:"Resource ID"`
	Body      struct {
		Status string `json:"status" minLength:"1" doc:"Target workflow status"`
		Reason string `json:"reason,omitempty" doc:"Optional reason recorded on the resource"`
	}
}

type TransitionOutput struct {
	Body ResourceResponse
}

// --- Purge Tenant ---

type PurgeTenantInput struct {
	Key string `path:"key" doc:"Tenant key to purge"`
}

type PurgeTenantOutput struct {
	Body struct {
		TenantKey string           `json:"tenant_key"`
		Deleted   map[string]int64 `json:"deleted" doc:"Rows deleted per table"`
	}
}

// --- Wallet ---

type GetWalletInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	Owner     string `path:"owner" doc:"Wallet owner ID"`
}

type GetWalletOutput struct {
	Body WalletResponse
}

type MoveFundsInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	Owner     string `path:"owner" doc:"Wallet owner ID"`
	Body      struct {
		Amount      int64  `json:"amount" minimum:"1" doc:"Amount in integer minor units"`
		Description string `json:"description,omitempty" doc:"Free-form description"`
		Reference   string `json:"reference,omitempty" doc:"External reference"`
	}
}

type MoveFundsOutput struct {
	Body WalletResponse
}

type TransferInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	Body      struct {
		FromOwner   string `json:"from_owner" minLength:"1" doc:"Source wallet owner"`
		ToOwner     string `json:"to_owner" minLength:"1" doc:"Destination wallet owner"`
		Amount      int64  `json:"amount" minimum:"1" doc:"Amount in integer minor units"`
		Description string `json:"description,omitempty" doc:"Free-form description"`
		Reference   string `json:"reference,omitempty" doc:"External reference"`
	}
}

type TransferOutput struct {
	Body struct {
		From WalletResponse `json:"from"`
		To   WalletResponse `json:"to"`
	}
}

type HistoryInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	Owner     string `path:"owner" doc:"Wallet owner ID"`
	Limit     int    `query:"limit" required:"false" default:"25" doc:"Max entries, newest first"`
}

type HistoryOutput struct {
	Body []TransactionResponse
}

// --- Settings ---

type GetSettingsInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	Section   string `path:"section" doc:"Settings section" enum:"booking,delivery,wallet"`
}

type GetSettingsOutput struct {
	Body any
}

type PutSettingsInput struct {
	TenantKey string `header:"X-Client-Identifier" required:"true" doc:"Tenant key"`
	Section   string `path:"section" doc:"Settings section" enum:"booking,delivery,wallet"`
	RawBody   []byte
}

type PutSettingsOutput struct {
	Body any
}

// Services groups the application services the API routes depend on.
type Services struct {
	Resources *app.ResourceService
	Ledger    *app.LedgerService
	Purge     *app.PurgeService
	Settings  *app.SettingsService
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "create-resource",
		Method:      http.MethodPost,
		Path:        "/api/v1/resources",
		Summary:     "Create a resource",
		Tags:        []string{"Resources"},
	}, func(ctx context.Context, input *CreateResourceInput) (*CreateResourceOutput, error) {
		r, err := svc.Resources.Create(ctx, input.TenantKey, domain.ResourceType(input.Body.Type), input.Body.Fields)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateResourceOutput{Body: toResourceResponse(r)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-resource",
		Method:      http.MethodGet,
		Path:        "/api/v1/resources/{id}",
		Summary:     "Get a resource by ID",
		Tags:        []string{"Resources"},
	}, func(ctx context.Context, input *GetResourceInput) (*GetResourceOutput, error) {
		r, err := svc.Resources.Get(ctx, input.TenantKey, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetResourceOutput{Body: toResourceResponse(r)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-resources",
		Method:      http.MethodGet,
		Path:        "/api/v1/resources",
		Summary:     "List resources",
		Tags:        []string{"Resources"},
	}, func(ctx context.Context, input *ListResourcesInput) (*ListResourcesOutput, error) {
		q := toListQuery(input)

		page, err := svc.Resources.List(ctx, input.TenantKey, q)
		if err != nil {
			return nil, toHumaError(err)
		}

		items := make([]ResourceResponse, len(page.Items))
		for i, r := range page.Items {
			items[i] = toResourceResponse(r)
		}
		return &ListResourcesOutput{Body: PageResponse{
			Items:      items,
			TotalCount: page.TotalCount,
			Page:       page.PageNumber,
			PerPage:    page.PerPage,
			LastPage:   page.LastPage,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-resource",
		Method:      http.MethodPost,
		Path:        "/api/v1/resources/{id}/transitions",
		Summary:     "Move a resource to a new workflow status",
		Tags:        []string{"Resources"},
	}, func(ctx context.Context, input *TransitionInput) (*TransitionOutput, error) {
		r, err := svc.Resources.Transition(ctx, input.TenantKey, input.ID,
			domain.Status(input.Body.Status), domain.TransitionContext{Reason: input.Body.Reason})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TransitionOutput{Body: toResourceResponse(r)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "purge-tenant",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tenants/{key}",
		Summary:     "Delete all data belonging to a tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *PurgeTenantInput) (*PurgeTenantOutput, error) {
		report, err := svc.Purge.DeleteTenant(ctx, input.Key)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &PurgeTenantOutput{}
		out.Body.TenantKey = input.Key
		out.Body.Deleted = report
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-wallet",
		Method:      http.MethodGet,
		Path:        "/api/v1/wallets/{owner}",
		Summary:     "Get a wallet, creating it if absent",
		Tags:        []string{"Wallets"},
	}, func(ctx context.Context, input *GetWalletInput) (*GetWalletOutput, error) {
		w, err := svc.Ledger.Wallet(ctx, input.TenantKey, input.Owner)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetWalletOutput{Body: toWalletResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "credit-wallet",
		Method:      http.MethodPost,
		Path:        "/api/v1/wallets/{owner}/credits",
		Summary:     "Add funds to a wallet",
		Tags:        []string{"Wallets"},
	}, func(ctx context.Context, input *MoveFundsInput) (*MoveFundsOutput, error) {
		w, err := svc.Ledger.AddFunds(ctx, input.TenantKey, input.Owner,
			input.Body.Amount, input.Body.Description, input.Body.Reference)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MoveFundsOutput{Body: toWalletResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "debit-wallet",
		Method:      http.MethodPost,
		Path:        "/api/v1/wallets/{owner}/debits",
		Summary:     "Deduct funds from a wallet",
		Tags:        []string{"Wallets"},
	}, func(ctx context.Context, input *MoveFundsInput) (*MoveFundsOutput, error) {
		w, err := svc.Ledger.DeductFunds(ctx, input.TenantKey, input.Owner,
			input.Body.Amount, input.Body.Description, input.Body.Reference)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MoveFundsOutput{Body: toWalletResponse(w)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transfer-funds",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers",
		Summary:     "Transfer funds between two wallets",
		Tags:        []string{"Wallets"},
	}, func(ctx context.Context, input *TransferInput) (*TransferOutput, error) {
		from, to, err := svc.Ledger.Transfer(ctx, input.TenantKey,
			input.Body.FromOwner, input.Body.ToOwner,
			input.Body.Amount, input.Body.Description, input.Body.Reference)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &TransferOutput{}
		out.Body.From = toWalletResponse(from)
		out.Body.To = toWalletResponse(to)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "wallet-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/wallets/{owner}/transactions",
		Summary:     "List wallet transactions, newest first",
		Tags:        []string{"Wallets"},
	}, func(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
		txs, err := svc.Ledger.History(ctx, input.TenantKey, input.Owner, input.Limit)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]TransactionResponse, len(txs))
		for i, tx := range txs {
			resp[i] = toTransactionResponse(tx)
		}
		return &HistoryOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings/{section}",
		Summary:     "Get a tenant settings section",
		Tags:        []string{"Settings"},
	}, func(ctx context.Context, input *GetSettingsInput) (*GetSettingsOutput, error) {
		section, ok := sectionByName(input.Section)
		if !ok {
			return nil, huma.Error404NotFound("unknown settings section")
		}
		if err := svc.Settings.Load(ctx, input.TenantKey, section); err != nil {
			return nil, toHumaError(err)
		}
		return &GetSettingsOutput{Body: section}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-settings",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings/{section}",
		Summary:     "Update a tenant settings section",
		Tags:        []string{"Settings"},
	}, func(ctx context.Context, input *PutSettingsInput) (*PutSettingsOutput, error) {
		section, ok := sectionByName(input.Section)
		if !ok {
			return nil, huma.Error404NotFound("unknown settings section")
		}
		// Unknown keys are rejected so typos don't silently vanish.
		dec := json.NewDecoder(bytes.NewReader(input.RawBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(section); err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid settings payload: " + err.Error())
		}
		if err := svc.Settings.Save(ctx, input.TenantKey, section); err != nil {
			return nil, toHumaError(err)
		}
		return &PutSettingsOutput{Body: section}, nil
	})
}

// toListQuery maps query parameters onto a domain listing query. Field and
// sort names are validated downstream against the type definition.
func toListQuery(input *ListResourcesInput) domain.ListQuery {
	q := domain.ListQuery{
		Type:    domain.ResourceType(input.Type),
		Search:  input.Search,
		Sort:    domain.Sort{Field: input.Sort, Direction: domain.SortDirection(input.Order)},
		Page:    input.Page,
		PerPage: input.PerPage,
		Limit:   input.Limit,
	}
	if input.Status != "" {
		q.Equals = append(q.Equals, domain.Equals{Field: "status", Value: input.Status})
	}
	if input.Field != "" && input.Value != "" {
		q.Equals = append(q.Equals, domain.Equals{Field: input.Field, Value: input.Value})
	}
	if input.RangeFrom != "" || input.RangeTo != "" {
		q.Ranges = append(q.Ranges, domain.Range{Field: "created_at", Min: input.RangeFrom, Max: input.RangeTo})
	}
	return q
}

// sectionByName returns a pointer to the default settings for a section, so
// stored values overlay the defaults on load.
func sectionByName(name string) (domain.SettingsSection, bool) {
	switch name {
	case "booking":
		s := domain.DefaultBookingSettings()
		return &s, true
	case "delivery":
		s := domain.DefaultDeliverySettings()
		return &s, true
	case "wallet":
		s := domain.DefaultWalletSettings()
		return &s, true
	}
	return nil, false
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return huma.Error404NotFound("not found")
	}

	var accessErr *domain.AccessDeniedError
	if errors.As(err, &accessErr) {
		return huma.Error403Forbidden(accessErr.Error())
	}

	var trErr *domain.InvalidTransitionError
	if errors.As(err, &trErr) {
		return huma.Error409Conflict(trErr.Error())
	}

	var fundsErr *domain.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		return huma.Error422UnprocessableEntity(fundsErr.Error())
	}

	var transferErr *domain.InvalidTransferError
	if errors.As(err, &transferErr) {
		return huma.Error422UnprocessableEntity(transferErr.Error())
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error422UnprocessableEntity(valErr.Error())
	}

	var typeErr *domain.UnknownTypeError
	if errors.As(err, &typeErr) {
		return huma.Error422UnprocessableEntity(typeErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
