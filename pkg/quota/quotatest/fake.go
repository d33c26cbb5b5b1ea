// Package quotatest provides in-memory fakes of the EC2 and Service Quotas
// clients for tests.
package quotatest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	sqtypes "github.com/aws/aws-sdk-go-v2/service/servicequotas/types"
)

// Instance is a running instance served by FakeEC2.
type Instance struct {
	ID   string
	Type string
	Spot bool
}

// FakeEC2 serves DescribeInstances one page per element of Pages.
type FakeEC2 struct {
	mu sync.Mutex

	Pages [][]Instance
	VCPUs map[string]int32

	InstancesErr error
	TypesErr     error

	InstancesCalls int
	TypesCalls     int
	RequestedTypes [][]string
	Filters        []ec2types.Filter
}

func (f *FakeEC2) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.InstancesCalls++
	f.Filters = in.Filters
	if f.InstancesErr != nil {
		return nil, f.InstancesErr
	}

	page := 0
	if tok := aws.ToString(in.NextToken); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("bad token %q", tok)
		}
		page = n
	}

	out := &ec2.DescribeInstancesOutput{}
	if page < len(f.Pages) {
		res := ec2types.Reservation{}
		for _, inst := range f.Pages[page] {
			i := ec2types.Instance{
				InstanceId:   aws.String(inst.ID),
				InstanceType: ec2types.InstanceType(inst.Type),
				State:        &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
			}
			if inst.Spot {
				i.InstanceLifecycle = ec2types.InstanceLifecycleTypeSpot
			}
			res.Instances = append(res.Instances, i)
		}
		out.Reservations = []ec2types.Reservation{res}
	}
	if page+1 < len(f.Pages) {
		out.NextToken = aws.String(strconv.Itoa(page + 1))
	}
	return out, nil
}

func (f *FakeEC2) DescribeInstanceTypes(_ context.Context, in *ec2.DescribeInstanceTypesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TypesCalls++
	if f.TypesErr != nil {
		return nil, f.TypesErr
	}

	requested := make([]string, 0, len(in.InstanceTypes))
	out := &ec2.DescribeInstanceTypesOutput{}
	for _, t := range in.InstanceTypes {
		requested = append(requested, string(t))
		v, ok := f.VCPUs[string(t)]
		if !ok {
			continue
		}
		out.InstanceTypes = append(out.InstanceTypes, ec2types.InstanceTypeInfo{
			InstanceType: t,
			VCpuInfo:     &ec2types.VCpuInfo{DefaultVCpus: aws.Int32(v)},
		})
	}
	f.RequestedTypes = append(f.RequestedTypes, requested)
	return out, nil
}

// FakeServiceQuotas keeps one quota and the requests made against it.
type FakeServiceQuotas struct {
	mu sync.Mutex

	// Applied is the account's applied value; nil makes GetServiceQuota
	// return NoSuchResourceException.
	Applied   *float64
	Default   float64
	QuotaName string

	GetErr     error
	DefaultErr error
	RequestErr error
	StatusErr  error
	HistoryErr error

	// Statuses is replayed by GetRequestedServiceQuotaChange; the last one repeats.
	Statuses []sqtypes.RequestStatus
	History  []sqtypes.RequestedServiceQuotaChange

	Submitted     []float64
	StatusCalls   int
	DefaultCalls  int
	HistoryStatus sqtypes.RequestStatus
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

func (f *FakeServiceQuotas) GetServiceQuota(_ context.Context, in *servicequotas.GetServiceQuotaInput, _ ...func(*servicequotas.Options)) (*servicequotas.GetServiceQuotaOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetErr != nil {
		return nil, f.GetErr
	}
	if f.Applied == nil {
		return nil, &sqtypes.NoSuchResourceException{Message: aws.String("no applied quota")}
	}
	return &servicequotas.GetServiceQuotaOutput{
		Quota: f.quota(in.ServiceCode, in.QuotaCode, *f.Applied),
	}, nil
}

func (f *FakeServiceQuotas) GetAWSDefaultServiceQuota(_ context.Context, in *servicequotas.GetAWSDefaultServiceQuotaInput, _ ...func(*servicequotas.Options)) (*servicequotas.GetAWSDefaultServiceQuotaOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DefaultCalls++
	if f.DefaultErr != nil {
		return nil, f.DefaultErr
	}
	return &servicequotas.GetAWSDefaultServiceQuotaOutput{
		Quota: f.quota(in.ServiceCode, in.QuotaCode, f.Default),
	}, nil
}

func (f *FakeServiceQuotas) RequestServiceQuotaIncrease(_ context.Context, in *servicequotas.RequestServiceQuotaIncreaseInput, _ ...func(*servicequotas.Options)) (*servicequotas.RequestServiceQuotaIncreaseOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.RequestErr != nil {
		return nil, f.RequestErr
	}
	desired := aws.ToFloat64(in.DesiredValue)
	f.Submitted = append(f.Submitted, desired)
	now := time.Now().UTC()
	return &servicequotas.RequestServiceQuotaIncreaseOutput{
		RequestedQuota: &sqtypes.RequestedServiceQuotaChange{
			Id:           aws.String(fmt.Sprintf("req-%d", len(f.Submitted))),
			ServiceCode:  in.ServiceCode,
			QuotaCode:    in.QuotaCode,
			QuotaName:    aws.String(f.QuotaName),
			DesiredValue: aws.Float64(desired),
			Status:       sqtypes.RequestStatusPending,
			Created:      &now,
		},
	}, nil
}

func (f *FakeServiceQuotas) GetRequestedServiceQuotaChange(_ context.Context, in *servicequotas.GetRequestedServiceQuotaChangeInput, _ ...func(*servicequotas.Options)) (*servicequotas.GetRequestedServiceQuotaChangeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.StatusCalls++
	if f.StatusErr != nil {
		return nil, f.StatusErr
	}
	status := sqtypes.RequestStatusPending
	if n := len(f.Statuses); n > 0 {
		idx := min(f.StatusCalls-1, n-1)
		status = f.Statuses[idx]
	}
	return &servicequotas.GetRequestedServiceQuotaChangeOutput{
		RequestedQuota: &sqtypes.RequestedServiceQuotaChange{
			Id:           in.RequestId,
			ServiceCode:  aws.String("ec2"),
			QuotaCode:    aws.String("L-1216C47A"),
			DesiredValue: aws.Float64(128),
			Status:       status,
		},
	}, nil
}

func (f *FakeServiceQuotas) ListRequestedServiceQuotaChangeHistoryByQuota(_ context.Context, in *servicequotas.ListRequestedServiceQuotaChangeHistoryByQuotaInput, _ ...func(*servicequotas.Options)) (*servicequotas.ListRequestedServiceQuotaChangeHistoryByQuotaOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.HistoryStatus = in.Status
	if f.HistoryErr != nil {
		return nil, f.HistoryErr
	}

	// One request per page to exercise pagination.
	page := 0
	if tok := aws.ToString(in.NextToken); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("bad token %q", tok)
		}
		page = n
	}

	var matching []sqtypes.RequestedServiceQuotaChange
	for _, r := range f.History {
		if in.Status == "" || r.Status == in.Status {
			matching = append(matching, r)
		}
	}

	out := &servicequotas.ListRequestedServiceQuotaChangeHistoryByQuotaOutput{}
	if page < len(matching) {
		out.RequestedQuotas = matching[page : page+1]
	}
	if page+1 < len(matching) {
		out.NextToken = aws.String(strconv.Itoa(page + 1))
	}
	return out, nil
}

func (f *FakeServiceQuotas) quota(serviceCode, quotaCode *string, value float64) *sqtypes.ServiceQuota {
	return &sqtypes.ServiceQuota{
		ServiceCode: serviceCode,
		QuotaCode:   quotaCode,
		QuotaName:   aws.String(f.QuotaName),
		Value:       aws.Float64(value),
		Unit:        aws.String("None"),
		Adjustable:  true,
	}
}
