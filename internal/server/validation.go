package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/mediacompose-api/internal/compose"
)

// newValidator returns a validator with the request-level rules registered.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(longformStructLevel, LongformRequest{})
	return v
}

// longformStructLevel caps background_urls by background_source.
func longformStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(LongformRequest)
	limit := compose.MaxBackgrounds(compose.BackgroundType(req.BackgroundSource))
	if limit > 0 && len(req.BackgroundURLs) > limit {
		sl.ReportError(req.BackgroundURLs, "background_urls", "BackgroundURLs", "max_for_source", fmt.Sprint(limit))
	}
}

// trimURLs strips surrounding whitespace from every URL in place.
func trimURLs(urls []string) {
	for i, u := range urls {
		urls[i] = strings.TrimSpace(u)
	}
}

// describeValidation turns validator errors into one readable line.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := jsonName(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
	case "max", "max_for_source":
		return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
	case "http_url":
		return field + " must be an http or https URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// jsonName drops the struct name from "MergeRequest.video_urls[1]".
func jsonName(namespace string) string {
	if _, field, ok := strings.Cut(namespace, "."); ok {
		return field
	}
	return namespace
}
