package evalexpr

import (
	"fmt"
	"strings"
	"time"

	"algotrade/internal/domain"

	"github.com/shopspring/decimal"
)

// EvalContext supplies the live data a condition is evaluated
// against: the wall clock, the symbol's current ticker, and the
// caller's signed position size.
type EvalContext struct {
	Now      time.Time
	Ticker   domain.Ticker
	Position decimal.Decimal
}

// EvaluateCondition evaluates the condition grammar from spec §6.
// value is the condition's companion argument (a date, time, or
// number), empty for the zero-argument conditions.
func EvaluateCondition(cond, value string, ctx EvalContext) (bool, error) {
	name := strings.ToLower(strings.TrimSpace(cond))

	switch name {
	case "always", "true":
		return true, nil
	case "never", "false":
		return false, nil

	case "isafterdate", "isonorafterdate", "isbeforedate", "isonorbeforedate", "issamedate":
		target, err := time.Parse("2006-01-02", value)
		if err != nil {
			return false, fmt.Errorf("invalid date %q: %w", value, err)
		}
		nowDay := truncateToDay(ctx.Now)
		targetDay := truncateToDay(target)
		switch name {
		case "isafterdate":
			return nowDay.After(targetDay), nil
		case "isonorafterdate":
			return !nowDay.Before(targetDay), nil
		case "isbeforedate":
			return nowDay.Before(targetDay), nil
		case "isonorbeforedate":
			return !nowDay.After(targetDay), nil
		case "issamedate":
			return nowDay.Equal(targetDay), nil
		}

	case "isaftertime", "isbeforetime":
		target, err := time.Parse("15:04", value)
		if err != nil {
			return false, fmt.Errorf("invalid time %q: %w", value, err)
		}
		todayTarget := time.Date(ctx.Now.Year(), ctx.Now.Month(), ctx.Now.Day(), target.Hour(), target.Minute(), 0, 0, time.UTC)
		if name == "isaftertime" {
			return ctx.Now.After(todayTarget), nil
		}
		return ctx.Now.Before(todayTarget), nil

	case "positionlessthan", "positiongreaterthan", "positionlessthaneq", "positiongreaterthaneq":
		threshold, err := decimal.NewFromString(value)
		if err != nil {
			return false, fmt.Errorf("invalid position value %q: %w", value, err)
		}
		switch name {
		case "positionlessthan":
			return ctx.Position.LessThan(threshold), nil
		case "positiongreaterthan":
			return ctx.Position.GreaterThan(threshold), nil
		case "positionlessthaneq":
			return !ctx.Position.GreaterThan(threshold), nil
		case "positiongreaterthaneq":
			return !ctx.Position.LessThan(threshold), nil
		}

	case "positionlong":
		return ctx.Position.GreaterThan(decimal.Zero), nil
	case "positionshort":
		return ctx.Position.LessThan(decimal.Zero), nil
	case "positionnone":
		return ctx.Position.IsZero(), nil

	case "pricelessthan", "pricegreaterthan", "pricelessthaneq", "pricegreaterthaneq":
		threshold, err := decimal.NewFromString(value)
		if err != nil {
			return false, fmt.Errorf("invalid price value %q: %w", value, err)
		}
		mid := ctx.Ticker.Mid()
		switch name {
		case "pricelessthan":
			return mid.LessThan(threshold), nil
		case "pricegreaterthan":
			return mid.GreaterThan(threshold), nil
		case "pricelessthaneq":
			return !mid.GreaterThan(threshold), nil
		case "pricegreaterthaneq":
			return !mid.LessThan(threshold), nil
		}
	}

	return false, fmt.Errorf("unknown condition %q", cond)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
