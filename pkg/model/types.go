package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Default Service Quotas identifiers for the EC2 On-Demand Standard vCPU quota.
const (
	DefaultServiceCode = "ec2"
	DefaultQuotaCode   = "L-1216C47A"
)

// ErrInvalidDesired is returned when a desired quota value cannot be used.
var ErrInvalidDesired = errors.New("desired quota must be a positive finite number")

// QuotaInfo describes the current value of a service quota.
type QuotaInfo struct {
	ServiceCode string  `json:"service_code" yaml:"service_code"`
	QuotaCode   string  `json:"quota_code" yaml:"quota_code"`
	Name        string  `json:"name" yaml:"name"`
	Value       float64 `json:"value" yaml:"value"`
	Unit        string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Adjustable  bool    `json:"adjustable" yaml:"adjustable"`
	// IsDefault is set when the account has no applied value and Value is the AWS default.
	IsDefault bool   `json:"is_default" yaml:"is_default"`
	Region    string `json:"region" yaml:"region"`
}

// UsageSnapshot holds the vCPUs consumed by running instances at one point in time.
type UsageSnapshot struct {
	RunningInstances int            `json:"running_instances" yaml:"running_instances"`
	VCPUs            int64          `json:"vcpus" yaml:"vcpus"`
	ByInstanceType   map[string]int `json:"by_instance_type,omitempty" yaml:"by_instance_type,omitempty"`
	// Skipped counts running instances left out by the family or lifecycle filters.
	Skipped   int       `json:"skipped" yaml:"skipped"`
	Families  []string  `json:"families,omitempty" yaml:"families,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Utilization returns the share of the quota consumed, in percent.
func (u *UsageSnapshot) Utilization(quota float64) float64 {
	if u == nil || quota <= 0 {
		return 0
	}
	return float64(u.VCPUs) / quota * 100
}

// RequestStatus mirrors the Service Quotas request status values.
type RequestStatus string

const (
	StatusPending        RequestStatus = "PENDING"
	StatusCaseOpened     RequestStatus = "CASE_OPENED"
	StatusApproved       RequestStatus = "APPROVED"
	StatusDenied         RequestStatus = "DENIED"
	StatusCaseClosed     RequestStatus = "CASE_CLOSED"
	StatusNotApproved    RequestStatus = "NOT_APPROVED"
	StatusInvalidRequest RequestStatus = "INVALID_REQUEST"
)

// Terminal reports whether AWS will make no further changes to a request in this status.
func (s RequestStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusDenied, StatusCaseClosed, StatusNotApproved, StatusInvalidRequest:
		return true
	}
	return false
}

// IncreaseRequest is a quota increase request as reported by Service Quotas.
type IncreaseRequest struct {
	ID           string        `json:"id" yaml:"id"`
	CaseID       string        `json:"case_id,omitempty" yaml:"case_id,omitempty"`
	ServiceCode  string        `json:"service_code" yaml:"service_code"`
	QuotaCode    string        `json:"quota_code" yaml:"quota_code"`
	QuotaName    string        `json:"quota_name,omitempty" yaml:"quota_name,omitempty"`
	Status       RequestStatus `json:"status" yaml:"status"`
	DesiredValue float64       `json:"desired_value" yaml:"desired_value"`
	Created      time.Time     `json:"created" yaml:"created"`
	LastUpdated  time.Time     `json:"last_updated" yaml:"last_updated"`
}

// Decision is the outcome of comparing a desired quota against the current one.
type Decision int

const (
	// DecisionSkip means no desired value was given.
	DecisionSkip Decision = iota
	// DecisionNotNeeded means the desired value does not exceed the current quota.
	DecisionNotNeeded
	// DecisionIncrease means an increase request should be submitted.
	DecisionIncrease
)

func (d Decision) String() string {
	switch d {
	case DecisionSkip:
		return "skip"
	case DecisionNotNeeded:
		return "not-needed"
	case DecisionIncrease:
		return "increase"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Decide returns DecisionIncrease iff desired > current.
func Decide(current, desired float64) Decision {
	if desired > current {
		return DecisionIncrease
	}
	return DecisionNotNeeded
}

// ParseDesired parses user input for a desired quota value.
// Blank input yields DecisionSkip with a nil error.
func ParseDesired(input string, current float64) (float64, Decision, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, DecisionSkip, nil
	}
	v, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, DecisionSkip, fmt.Errorf("%w: %q", ErrInvalidDesired, input)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, DecisionSkip, fmt.Errorf("%w: %q", ErrInvalidDesired, input)
	}
	return v, Decide(current, v), nil
}

// CheckResult bundles everything reported by a quota check.
type CheckResult struct {
	Quota QuotaInfo      `json:"quota" yaml:"quota"`
	Usage *UsageSnapshot `json:"usage,omitempty" yaml:"usage,omitempty"`
}
