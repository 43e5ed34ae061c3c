package order

// forward is the canonical delivery sequence.
var forward = []Status{StatusPending, StatusConfirmed, StatusOutForDelivery, StatusDelivered}

var labels = map[Status]string{
	StatusPending:        "Pending",
	StatusConfirmed:      "Confirmed",
	StatusOutForDelivery: "Out for delivery",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Cancelled",
	StatusRejected:       "Rejected",
}

func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRejected
}

// Failed reports the terminal statuses that end the order without delivery.
func (s Status) Failed() bool {
	return s == StatusCancelled || s == StatusRejected
}

func forwardIndex(s Status) int {
	for i, f := range forward {
		if f == s {
			return i
		}
	}
	return -1
}

// CanTransition reports whether to is reachable from from in one request.
// Forward moves may skip steps; cancellation is open until the order leaves
// Confirmed and rejection only while it is Pending.
func CanTransition(from, to Status) bool {
	if from.Terminal() || from == to {
		return false
	}
	switch to {
	case StatusCancelled:
		return from == StatusPending || from == StatusConfirmed
	case StatusRejected:
		return from == StatusPending
	}
	fi, ti := forwardIndex(from), forwardIndex(to)
	return fi >= 0 && ti > fi
}

type Step struct {
	Status    Status `json:"status"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current"`
	Failed    bool   `json:"failed,omitempty"`
}

// StatusSteps renders progress for current. Forward statuses complete every
// step up to and including themselves. Cancelled and Rejected show only
// Pending followed by the terminal step, since nothing else is known to have
// happened.
func StatusSteps(current Status) []Step {
	if current.Failed() {
		return failedSteps([]Status{StatusPending}, current)
	}

	idx := forwardIndex(current)
	steps := make([]Step, len(forward))
	for i, s := range forward {
		steps[i] = Step{
			Status:    s,
			Label:     s.Label(),
			Completed: idx >= 0 && i <= idx,
			Current:   i == idx,
		}
	}
	return steps
}

// Steps is StatusSteps informed by the order's history, so a cancelled
// order shows every forward step it actually reached.
func (o *Order) Steps() []Step {
	if !o.Status.Failed() {
		return StatusSteps(o.Status)
	}

	reached := []Status{StatusPending}
	for _, s := range forward[1:] {
		for _, h := range o.StatusHistory {
			if h.Status == s {
				reached = append(reached, s)
				break
			}
		}
	}
	return failedSteps(reached, o.Status)
}

func failedSteps(reached []Status, terminal Status) []Step {
	steps := make([]Step, 0, len(reached)+1)
	for _, s := range reached {
		steps = append(steps, Step{Status: s, Label: s.Label(), Completed: true})
	}
	return append(steps, Step{
		Status:    terminal,
		Label:     terminal.Label(),
		Completed: true,
		Current:   true,
		Failed:    true,
	})
}
