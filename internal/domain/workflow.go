package domain

import "time"

// Transition defines a valid status change for a resource type.
type Transition struct {
	Src Status
	Dst Status
}

// Effect describes what happens when a resource enters a status. Stamps are
// idempotent; Set overwrites fields unconditionally (e.g., releasing a
// courier on delivery); Reason names the field that captures the caller's
// reason when one is supplied.
type Effect struct {
	Stamp  string
	Set    map[string]any
	Reason string
}

// TypeDef is the declarative definition of a resource type: its transition
// table, per-status side effects, and listing defaults. This is domain
// knowledge consumed by the FSM adapter and the query layer.
type TypeDef struct {
	Name         ResourceType
	Initial      Status
	Transitions  []Transition
	Effects      map[Status]Effect
	SearchFields []string
	SortFields   []string
	DefaultSort  Sort
}

// Allows reports whether the table contains the (from, to) edge.
func (d TypeDef) Allows(from, to Status) bool {
	for _, t := range d.Transitions {
		if t.Src == from && t.Dst == to {
			return true
		}
	}
	return false
}

// TransitionContext carries caller-supplied data applied by side effects.
type TransitionContext struct {
	Reason string
}

// ApplyTransition moves the resource to target and applies the type's side
// effects for that status. Legality must already have been checked; this is
// the pure state change, run inside the repository's transaction.
func ApplyTransition(def TypeDef, r Resource, target Status, tc TransitionContext, now time.Time) Resource {
	r.Status = target
	r.UpdatedAt = now

	eff, ok := def.Effects[target]
	if !ok {
		return r
	}
	if eff.Stamp != "" {
		r.Stamp(eff.Stamp, now)
	}
	if len(eff.Set) > 0 {
		if r.Fields == nil {
			r.Fields = map[string]any{}
		}
		for k, v := range eff.Set {
			r.Fields[k] = v
		}
	}
	if eff.Reason != "" && tc.Reason != "" {
		if r.Fields == nil {
			r.Fields = map[string]any{}
		}
		r.Fields[eff.Reason] = tc.Reason
	}
	return r
}

// Appointment statuses.
const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
	StatusCompleted Status = "completed"
)

// Parcel delivery statuses.
const (
	StatusPending           Status = "pending"
	StatusDeliveryScheduled Status = "scheduled"
	StatusOutForPickup      Status = "out_for_pickup"
	StatusPickedUp          Status = "picked_up"
	StatusAtWarehouse       Status = "at_warehouse"
	StatusInTransit         Status = "in_transit"
	StatusOutForDelivery    Status = "out_for_delivery"
	StatusDelivered         Status = "delivered"
	StatusDeliveryAttempted Status = "delivery_attempted"
	StatusReturned          Status = "returned"
	StatusFailed            Status = "failed"
)

// Kitchen order statuses.
const (
	StatusPlaced    Status = "placed"
	StatusAccepted  Status = "accepted"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusServed    Status = "served"
)

// TypeAppointment is the booking machine: scheduled -> {confirmed, cancelled,
// no_show}, confirmed -> {completed, cancelled, no_show}.
var TypeAppointment = TypeDef{
	Name:    "appointment",
	Initial: StatusScheduled,
	Transitions: []Transition{
		{Src: StatusScheduled, Dst: StatusConfirmed},
		{Src: StatusScheduled, Dst: StatusCancelled},
		{Src: StatusScheduled, Dst: StatusNoShow},
		{Src: StatusConfirmed, Dst: StatusCompleted},
		{Src: StatusConfirmed, Dst: StatusCancelled},
		{Src: StatusConfirmed, Dst: StatusNoShow},
	},
	Effects: map[Status]Effect{
		StatusConfirmed: {Stamp: "confirmed_at"},
		StatusCancelled: {Stamp: "cancelled_at", Reason: "cancellation_reason"},
		StatusCompleted: {Stamp: "completed_at"},
	},
	SearchFields: []string{"patient_name", "provider_name", "notes"},
	SortFields:   []string{"created_at", "updated_at", "status", "start_at"},
	DefaultSort:  Sort{Field: "start_at", Direction: SortAsc},
}

// TypeParcel is the delivery machine. Delivery attempts loop back to
// out_for_delivery; terminal delivery or cancellation releases the courier.
var TypeParcel = TypeDef{
	Name:    "parcel",
	Initial: StatusPending,
	Transitions: []Transition{
		{Src: StatusPending, Dst: StatusConfirmed},
		{Src: StatusPending, Dst: StatusCancelled},
		{Src: StatusConfirmed, Dst: StatusDeliveryScheduled},
		{Src: StatusConfirmed, Dst: StatusCancelled},
		{Src: StatusDeliveryScheduled, Dst: StatusOutForPickup},
		{Src: StatusDeliveryScheduled, Dst: StatusCancelled},
		{Src: StatusOutForPickup, Dst: StatusPickedUp},
		{Src: StatusPickedUp, Dst: StatusAtWarehouse},
		{Src: StatusAtWarehouse, Dst: StatusInTransit},
		{Src: StatusInTransit, Dst: StatusOutForDelivery},
		{Src: StatusOutForDelivery, Dst: StatusDelivered},
		{Src: StatusOutForDelivery, Dst: StatusDeliveryAttempted},
		{Src: StatusOutForDelivery, Dst: StatusReturned},
		{Src: StatusOutForDelivery, Dst: StatusFailed},
		{Src: StatusDeliveryAttempted, Dst: StatusOutForDelivery},
		{Src: StatusDeliveryAttempted, Dst: StatusReturned},
	},
	Effects: map[Status]Effect{
		StatusConfirmed:         {Stamp: "confirmed_at"},
		StatusPickedUp:          {Stamp: "picked_up_at"},
		StatusDelivered:         {Stamp: "delivered_at", Set: map[string]any{"courier_available": true}},
		StatusDeliveryAttempted: {Stamp: "last_attempt_at"},
		StatusReturned:          {Stamp: "returned_at", Set: map[string]any{"courier_available": true}},
		StatusCancelled:         {Stamp: "cancelled_at", Reason: "cancellation_reason", Set: map[string]any{"courier_available": true}},
	},
	SearchFields: []string{"tracking_code", "recipient_name", "recipient_phone"},
	SortFields:   []string{"created_at", "updated_at", "status"},
	DefaultSort:  Sort{Field: "created_at", Direction: SortDesc},
}

// TypeKitchenOrder is the F&B machine. The preparing self-edge allows the
// kitchen to re-announce preparation; prepared_at is stamped only once.
var TypeKitchenOrder = TypeDef{
	Name:    "kitchen_order",
	Initial: StatusPlaced,
	Transitions: []Transition{
		{Src: StatusPlaced, Dst: StatusAccepted},
		{Src: StatusPlaced, Dst: StatusCancelled},
		{Src: StatusAccepted, Dst: StatusPreparing},
		{Src: StatusAccepted, Dst: StatusCancelled},
		{Src: StatusPreparing, Dst: StatusPreparing},
		{Src: StatusPreparing, Dst: StatusReady},
		{Src: StatusReady, Dst: StatusServed},
	},
	Effects: map[Status]Effect{
		StatusAccepted:  {Stamp: "accepted_at"},
		StatusPreparing: {Stamp: "prepared_at"},
		StatusReady:     {Stamp: "ready_at"},
		StatusServed:    {Stamp: "served_at"},
		StatusCancelled: {Stamp: "cancelled_at", Reason: "cancellation_reason"},
	},
	SearchFields: []string{"table_number", "customer_name"},
	SortFields:   []string{"created_at", "updated_at", "status"},
	DefaultSort:  Sort{Field: "created_at", Direction: SortAsc},
}

var typeRegistry = map[ResourceType]TypeDef{
	TypeAppointment.Name:  TypeAppointment,
	TypeParcel.Name:       TypeParcel,
	TypeKitchenOrder.Name: TypeKitchenOrder,
}

// TypeByName looks up a registered resource type definition.
func TypeByName(name ResourceType) (TypeDef, error) {
	def, ok := typeRegistry[name]
	if !ok {
		return TypeDef{}, &UnknownTypeError{Name: string(name)}
	}
	return def, nil
}

// Types returns all registered type definitions.
func Types() []TypeDef {
	out := make([]TypeDef, 0, len(typeRegistry))
	for _, def := range typeRegistry {
		out = append(out, def)
	}
	return out
}
