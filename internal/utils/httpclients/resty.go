package httpclients

import (
	"context"
	"time"

	"resty.dev/v3"

	"github.com/thaiduongngo/cool-asa/internal/infrastructure/logger"
)

type httpClientStartsAt struct{}

// NewClient builds a resty client with debug logging of outbound calls.
func NewClient(clientName string) *resty.Client {
	client := resty.New()
	client.AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
		r.SetContext(context.WithValue(r.Context(), httpClientStartsAt{}, time.Now()))
		return nil
	})
	client.AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
		log := logger.GetLogger()
		startTime, _ := r.Request.Context().Value(httpClientStartsAt{}).(time.Time)

		log.Debug().
			Str("client", clientName).
			Int("status", r.StatusCode()).
			Str("method", r.Request.RawRequest.Method).
			Str("path", r.Request.RawRequest.URL.Path).
			Dur("latency", time.Since(startTime)).
			Msg("HTTP client request")
		return nil
	})
	return client
}
