package quota

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	sqtypes "github.com/aws/aws-sdk-go-v2/service/servicequotas/types"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/catalog"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
)

// Options selects the quota a Service works on and how usage is counted.
type Options struct {
	ServiceCode string
	QuotaCode   string
	Region      string
	// IncludeSpot counts spot instances against the On-Demand quota.
	IncludeSpot bool
	// MatchFamilies restricts usage to instance families the catalog maps to QuotaCode.
	MatchFamilies bool
	Catalog       *catalog.Registry
}

// Service reads, counts and raises one vCPU quota.
type Service struct {
	ec2    EC2API
	sq     ServiceQuotasAPI
	opts   Options
	logger *slog.Logger
	vcpus  map[string]int32
}

// NewService creates a quota service over the given clients.
func NewService(ec2Client EC2API, sqClient ServiceQuotasAPI, opts Options, logger *slog.Logger) *Service {
	if opts.ServiceCode == "" {
		opts.ServiceCode = model.DefaultServiceCode
	}
	if opts.QuotaCode == "" {
		opts.QuotaCode = model.DefaultQuotaCode
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		ec2:    ec2Client,
		sq:     sqClient,
		opts:   opts,
		logger: logger,
		vcpus:  make(map[string]int32),
	}
}

// Options returns the options the service was built with.
func (s *Service) Options() Options {
	return s.opts
}

// Quota returns the applied value of the quota, falling back to the AWS
// default when the account has never had a value applied.
func (s *Service) Quota(ctx context.Context) (*model.QuotaInfo, error) {
	out, err := s.sq.GetServiceQuota(ctx, &servicequotas.GetServiceQuotaInput{
		ServiceCode: aws.String(s.opts.ServiceCode),
		QuotaCode:   aws.String(s.opts.QuotaCode),
	})
	if err == nil {
		if out.Quota == nil {
			return nil, fmt.Errorf("get service quota: empty response for %s", s.opts.QuotaCode)
		}
		return s.toQuotaInfo(out.Quota, false), nil
	}
	if !isNoSuchResource(err) {
		return nil, fmt.Errorf("get service quota: %w", err)
	}

	s.logger.Debug("no applied quota value, using aws default", "quota_code", s.opts.QuotaCode)
	def, err := s.sq.GetAWSDefaultServiceQuota(ctx, &servicequotas.GetAWSDefaultServiceQuotaInput{
		ServiceCode: aws.String(s.opts.ServiceCode),
		QuotaCode:   aws.String(s.opts.QuotaCode),
	})
	if err != nil {
		return nil, fmt.Errorf("get default service quota: %w", err)
	}
	if def.Quota == nil {
		return nil, fmt.Errorf("get default service quota: empty response for %s", s.opts.QuotaCode)
	}
	return s.toQuotaInfo(def.Quota, true), nil
}

// Check reads the quota and, when withUsage is set, the current vCPU usage.
func (s *Service) Check(ctx context.Context, withUsage bool) (*model.CheckResult, error) {
	q, err := s.Quota(ctx)
	if err != nil {
		return nil, err
	}
	result := &model.CheckResult{Quota: *q}
	if !withUsage {
		return result, nil
	}

	u, err := s.Usage(ctx)
	if err != nil {
		return nil, err
	}
	result.Usage = u
	return result, nil
}

// RequestIncrease submits a quota increase to desired without comparing it
// to the current value.
func (s *Service) RequestIncrease(ctx context.Context, desired float64) (*model.IncreaseRequest, error) {
	if math.IsNaN(desired) || math.IsInf(desired, 0) || desired <= 0 {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidDesired, desired)
	}

	out, err := s.sq.RequestServiceQuotaIncrease(ctx, &servicequotas.RequestServiceQuotaIncreaseInput{
		ServiceCode:  aws.String(s.opts.ServiceCode),
		QuotaCode:    aws.String(s.opts.QuotaCode),
		DesiredValue: aws.Float64(desired),
	})
	if err != nil {
		if isAlreadyExists(err) {
			return nil, fmt.Errorf("request quota increase: %w", ErrRequestPending)
		}
		return nil, fmt.Errorf("request quota increase: %w", err)
	}
	if out.RequestedQuota == nil {
		return nil, fmt.Errorf("request quota increase: empty response")
	}

	req := toIncreaseRequest(out.RequestedQuota)
	s.logger.Info("quota increase requested",
		"quota_code", s.opts.QuotaCode,
		"desired", desired,
		"request_id", req.ID,
		"status", req.Status,
	)
	return &req, nil
}

// IncreaseIfNeeded submits a request iff desired exceeds current. The returned
// request is nil unless the decision is model.DecisionIncrease.
func (s *Service) IncreaseIfNeeded(ctx context.Context, current, desired float64) (*model.IncreaseRequest, model.Decision, error) {
	decision := model.Decide(current, desired)
	if decision != model.DecisionIncrease {
		s.logger.Debug("increase not needed", "current", current, "desired", desired)
		return nil, decision, nil
	}
	req, err := s.RequestIncrease(ctx, desired)
	if err != nil {
		return nil, decision, err
	}
	return req, decision, nil
}

// Status fetches a previously submitted increase request.
func (s *Service) Status(ctx context.Context, requestID string) (*model.IncreaseRequest, error) {
	out, err := s.sq.GetRequestedServiceQuotaChange(ctx, &servicequotas.GetRequestedServiceQuotaChangeInput{
		RequestId: aws.String(requestID),
	})
	if err != nil {
		return nil, fmt.Errorf("get requested quota change: %w", err)
	}
	if out.RequestedQuota == nil {
		return nil, fmt.Errorf("get requested quota change: request %q not returned", requestID)
	}
	req := toIncreaseRequest(out.RequestedQuota)
	return &req, nil
}

// Watch polls a request until it reaches a terminal status or ctx is done.
// onUpdate, when non-nil, is called whenever the status changes.
func (s *Service) Watch(ctx context.Context, requestID string, interval time.Duration, onUpdate func(*model.IncreaseRequest)) (*model.IncreaseRequest, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	var last model.RequestStatus
	for {
		req, err := s.Status(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if req.Status != last {
			last = req.Status
			s.logger.Debug("request status", "request_id", requestID, "status", req.Status)
			if onUpdate != nil {
				onUpdate(req)
			}
		}
		if req.Status.Terminal() {
			return req, nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return req, ctx.Err()
		case <-timer.C:
		}
	}
}

// History lists increase requests for the quota, newest first as AWS returns
// them. An empty status lists every request.
func (s *Service) History(ctx context.Context, status model.RequestStatus) ([]model.IncreaseRequest, error) {
	input := &servicequotas.ListRequestedServiceQuotaChangeHistoryByQuotaInput{
		ServiceCode: aws.String(s.opts.ServiceCode),
		QuotaCode:   aws.String(s.opts.QuotaCode),
	}
	if status != "" {
		input.Status = sqtypes.RequestStatus(status)
	}

	var requests []model.IncreaseRequest
	p := servicequotas.NewListRequestedServiceQuotaChangeHistoryByQuotaPaginator(s.sq, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list quota request history: %w", err)
		}
		for i := range page.RequestedQuotas {
			requests = append(requests, toIncreaseRequest(&page.RequestedQuotas[i]))
		}
	}
	return requests, nil
}

func (s *Service) toQuotaInfo(q *sqtypes.ServiceQuota, isDefault bool) *model.QuotaInfo {
	info := &model.QuotaInfo{
		ServiceCode: aws.ToString(q.ServiceCode),
		QuotaCode:   aws.ToString(q.QuotaCode),
		Name:        aws.ToString(q.QuotaName),
		Value:       aws.ToFloat64(q.Value),
		Unit:        aws.ToString(q.Unit),
		Adjustable:  q.Adjustable,
		IsDefault:   isDefault,
		Region:      s.opts.Region,
	}
	if info.ServiceCode == "" {
		info.ServiceCode = s.opts.ServiceCode
	}
	if info.QuotaCode == "" {
		info.QuotaCode = s.opts.QuotaCode
	}
	return info
}

func toIncreaseRequest(rq *sqtypes.RequestedServiceQuotaChange) model.IncreaseRequest {
	return model.IncreaseRequest{
		ID:           aws.ToString(rq.Id),
		CaseID:       aws.ToString(rq.CaseId),
		ServiceCode:  aws.ToString(rq.ServiceCode),
		QuotaCode:    aws.ToString(rq.QuotaCode),
		QuotaName:    aws.ToString(rq.QuotaName),
		Status:       model.RequestStatus(rq.Status),
		DesiredValue: aws.ToFloat64(rq.DesiredValue),
		Created:      aws.ToTime(rq.Created),
		LastUpdated:  aws.ToTime(rq.LastUpdated),
	}
}
