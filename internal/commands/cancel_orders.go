package commands

import (
	"context"

	"algotrade/internal/domain"
	"algotrade/internal/scheduler"

	"github.com/google/uuid"
)

// CancelOrders marks matching algo-registry entries cancelled (spec
// §4.3). It never touches the broker directly — cancellation is
// cooperative; the matched commands cancel their own broker orders
// from their onCancelled hook on their next poll.
type CancelOrders struct {
	Context
	Raw       map[string]string
	SessionID uuid.UUID
}

func NewCancelOrders(ctx Context, sessionID uuid.UUID, params map[string]string) *CancelOrders {
	defaults := map[string]string{"who": "session", "tag": "", "id": ""}
	for k, v := range params {
		defaults[k] = v
	}
	return &CancelOrders{Context: ctx, Raw: defaults, SessionID: sessionID}
}

func (c *CancelOrders) Setup(ctx context.Context) error { return nil }

func (c *CancelOrders) Execute(ctx context.Context) (scheduler.State, error) {
	pred := domain.CancelPredicate{
		Who:       c.Raw["who"],
		SessionID: c.SessionID,
		Tag:       c.Raw["tag"],
	}
	if c.Raw["who"] == "id" {
		id, err := uuid.Parse(c.Raw["id"])
		if err != nil {
			return scheduler.Finished, domain.NewInvalidArgument("invalid algo order id " + c.Raw["id"])
		}
		pred.ID = id
	}

	n := c.Registry.Cancel(pred)
	c.logger().Info("cancelOrders matched entries", "who", pred.Who, "count", n)
	return scheduler.Finished, nil
}

func (c *CancelOrders) BackgroundExecute(ctx context.Context) (scheduler.State, error) {
	return scheduler.Finished, nil
}

func (c *CancelOrders) CanCompleteInBackground() bool { return false }

func (c *CancelOrders) OnCancelled(ctx context.Context) error { return nil }
