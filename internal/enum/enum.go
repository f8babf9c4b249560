package enum

// ── Order lifecycle (CHECK constrained in DB) ──
//
// pending → preparing → served → completed. Strictly forward, no skipping,
// completed is terminal. Kitchen staff trigger each step explicitly.

const (
	OrderStatusPending   = "pending"
	OrderStatusPreparing = "preparing"
	OrderStatusServed    = "served"
	OrderStatusCompleted = "completed"
)

// ActiveOrderStatuses are the statuses shown in the kitchen queue.
// completed orders are excluded (reporting reads them separately).
var ActiveOrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusServed,
}

var nextStatus = map[string]string{
	OrderStatusPending:   OrderStatusPreparing,
	OrderStatusPreparing: OrderStatusServed,
	OrderStatusServed:    OrderStatusCompleted,
}

// NextOrderStatus returns the single legal successor of s.
// ok is false for the terminal status and for unknown values.
func NextOrderStatus(s string) (next string, ok bool) {
	next, ok = nextStatus[s]
	return next, ok
}

// CanTransition reports whether from → to is the one allowed forward step.
func CanTransition(from, to string) bool {
	next, ok := nextStatus[from]
	return ok && next == to
}

func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusServed, OrderStatusCompleted:
		return true
	}
	return false
}

func IsActiveOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusServed:
		return true
	}
	return false
}

// ── Display labels (kitchen dashboard) ──

var statusLabels = map[string]string{
	OrderStatusPending:   "待处理",
	OrderStatusPreparing: "制作中",
	OrderStatusServed:    "已上菜",
	OrderStatusCompleted: "已完成",
}

// actionLabels name the button that advances an order out of each status.
var actionLabels = map[string]string{
	OrderStatusPending:   "开始制作",
	OrderStatusPreparing: "已上菜",
	OrderStatusServed:    "完成订单",
}

// StatusLabel returns the display label for a status, or the raw value if unknown.
func StatusLabel(s string) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s
}

// ActionLabel returns the label of the action that advances s to its successor.
// Empty for the terminal status.
func ActionLabel(s string) string {
	return actionLabels[s]
}

// ── Staff roles ──

const (
	UserRoleOwner = "OWNER"
	UserRoleStaff = "STAFF"
)
