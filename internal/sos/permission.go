package sos

import (
	"errors"
	"fmt"
	"sync"
)

// PermissionState is a step of the location permission flow.
type PermissionState string

const (
	PermissionIdle      PermissionState = "idle"
	PermissionPrompting PermissionState = "prompting"
	PermissionDenied    PermissionState = "denied"
	PermissionGranted   PermissionState = "granted"
)

var ErrInvalidTransition = errors.New("invalid permission transition")

// LocationPermission tracks whether the reporter shared a location.
//
//	idle -> prompting -> granted
//	             |  ^
//	             v  |
//	            denied
//
// A denied permission may be prompted again. Granted is final.
type LocationPermission struct {
	mu       sync.Mutex
	state    PermissionState
	location *Location
	reason   string
}

func NewLocationPermission() *LocationPermission {
	return &LocationPermission{state: PermissionIdle}
}

func (p *LocationPermission) State() PermissionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Prompt asks for the location, from idle or after a denial.
func (p *LocationPermission) Prompt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PermissionIdle && p.state != PermissionDenied {
		return p.invalid("prompt")
	}
	p.state = PermissionPrompting
	p.reason = ""
	return nil
}

// Grant records the shared coordinates. Out-of-range coordinates leave the
// prompt open.
func (p *LocationPermission) Grant(lat, lon float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PermissionPrompting {
		return p.invalid("grant")
	}
	loc := Location{Latitude: lat, Longitude: lon}
	if err := loc.Validate(); err != nil {
		return err
	}
	p.location = &loc
	p.state = PermissionGranted
	return nil
}

func (p *LocationPermission) Deny(reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PermissionPrompting {
		return p.invalid("deny")
	}
	p.state = PermissionDenied
	p.reason = reason
	return nil
}

// Location returns the granted location, or nil.
func (p *LocationPermission) Location() *Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.location == nil {
		return nil
	}
	loc := *p.location
	return &loc
}

// Reason is the message of the last denial.
func (p *LocationPermission) Reason() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason
}

func (p *LocationPermission) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, p.state)
}
