// Package gonoop is the telemetry backend used when reporting is
// disabled or unconfigured.
package gonoop

import (
	"context"

	"github.com/canleads/places-scraper/tlmt"
)

type service struct{}

func New() tlmt.Telemetry {
	return &service{}
}

func (s *service) Send(context.Context, tlmt.Event) error {
	return nil
}

func (s *service) Close() error {
	return nil
}
