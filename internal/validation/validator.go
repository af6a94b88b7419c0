// Package validation turns raw query strings and JSON bodies into dto values,
// collecting every problem as an apperr.Violation before giving up.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"taskhub/internal/apperr"
	"taskhub/internal/model"
)

var (
	clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]:[0-5][0-9]$`)
	hhmmPattern  = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
)

const (
	locationQuery = "query"
	locationBody  = "body"
)

// Validator is safe for concurrent use.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New builds a Validator. now decides what "today" is for due date checks.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "channel", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case model.ChannelApp, model.ChannelEmail, model.ChannelPush:
			return true
		}
		return false
	})
	mustRegister(v, "frequency", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case model.FrequencyOnce, model.FrequencyDaily, model.FrequencyTwiceADay, model.FrequencyEvery6h:
			return true
		}
		return false
	})
	mustRegister(v, "readstatus", func(fl validator.FieldLevel) bool {
		switch model.ReadStatus(fl.Field().String()) {
		case model.ReadStatusUnread, model.ReadStatusRead, model.ReadStatusDismissed:
			return true
		}
		return false
	})
	return &Validator{v: v, now: now}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// today is the UTC calendar day, matching what the database compares against.
func (v *Validator) today() model.Date {
	return model.DateOf(v.now().UTC())
}

// collector accumulates violations. The first message per path wins.
type collector struct {
	violations []apperr.Violation
	seen       map[string]bool
}

func (c *collector) add(path, msg string) {
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[path] {
		return
	}
	c.seen[path] = true
	c.violations = append(c.violations, apperr.Violation{Path: path, Message: msg})
}

func (c *collector) err() error {
	if len(c.violations) == 0 {
		return nil
	}
	return apperr.Validation(c.violations)
}

// check runs the struct tags of dst and files failures under location.
func (v *Validator) check(c *collector, location string, dst any) {
	err := v.v.Struct(dst)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		c.add(location, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		c.add(location+"."+ns, message(fe))
	}
}

func message(fe validator.FieldError) string {
	kind := fe.Kind()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return "must be greater than or equal to " + fe.Param()
	case "max":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		case reflect.Slice:
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		return "must be less than or equal to " + fe.Param()
	case "gt":
		if fe.Param() == "0" {
			return "must be a positive integer"
		}
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "clock":
		return "must use the HH:MM:SS format"
	case "hhmm":
		return "must use the HH:MM format"
	case "channel":
		return fmt.Sprintf("must be one of: %s, %s, %s", model.ChannelApp, model.ChannelEmail, model.ChannelPush)
	case "frequency":
		return fmt.Sprintf("must be one of: %s, %s, %s, %s",
			model.FrequencyOnce, model.FrequencyDaily, model.FrequencyTwiceADay, model.FrequencyEvery6h)
	case "readstatus":
		return fmt.Sprintf("must be one of: %s, %s, %s",
			model.ReadStatusUnread, model.ReadStatusRead, model.ReadStatusDismissed)
	}
	return "failed the " + fe.Tag() + " check"
}

// checkDueDate applies the calendar window accepted for due dates.
func (v *Validator) checkDueDate(c *collector, path string, d *model.Date) {
	if d == nil {
		return
	}
	today := v.today()
	if d.Before(today) {
		c.add(path, "must be today or later")
		return
	}
	if d.After(model.DateOf(today.AddDate(100, 0, 0))) {
		c.add(path, "must be within the next 100 years")
	}
}
