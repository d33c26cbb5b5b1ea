package quota

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/catalog"
	"github.com/ogulcanaydogan/vCPU-Quota-Guardian/pkg/model"
)

// describeTypesBatch is the most instance types DescribeInstanceTypes accepts per call.
const describeTypesBatch = 100

// Usage counts the vCPUs of running instances that draw on the quota.
func (s *Service) Usage(ctx context.Context) (*model.UsageSnapshot, error) {
	entry, filtered := s.familyFilter()

	counts := make(map[string]int)
	snap := &model.UsageSnapshot{
		ByInstanceType: counts,
		Timestamp:      time.Now().UTC(),
	}
	if filtered {
		snap.Families = append([]string(nil), entry.Families...)
	}

	p := ec2.NewDescribeInstancesPaginator(s.ec2, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("instance-state-name"), Values: []string{"running"}},
		},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}
		for _, res := range page.Reservations {
			for _, inst := range res.Instances {
				if !s.counts(inst, entry, filtered) {
					snap.Skipped++
					continue
				}
				counts[string(inst.InstanceType)]++
				snap.RunningInstances++
			}
		}
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	vcpus, err := s.vcpusFor(ctx, types)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		snap.VCPUs += int64(counts[t]) * int64(vcpus[t])
	}

	s.logger.Debug("vcpu usage counted",
		"quota_code", s.opts.QuotaCode,
		"instances", snap.RunningInstances,
		"vcpus", snap.VCPUs,
		"skipped", snap.Skipped,
	)
	return snap, nil
}

func (s *Service) familyFilter() (catalog.Entry, bool) {
	if !s.opts.MatchFamilies || s.opts.Catalog == nil {
		return catalog.Entry{}, false
	}
	entry, err := s.opts.Catalog.Get(s.opts.QuotaCode)
	if err != nil {
		s.logger.Debug("quota not in catalog, counting all families", "quota_code", s.opts.QuotaCode)
		return catalog.Entry{}, false
	}
	return entry, true
}

func (s *Service) counts(inst ec2types.Instance, entry catalog.Entry, filtered bool) bool {
	if inst.InstanceType == "" {
		return false
	}
	if !s.opts.IncludeSpot && inst.InstanceLifecycle == ec2types.InstanceLifecycleTypeSpot {
		return false
	}
	if filtered && !entry.Covers(string(inst.InstanceType)) {
		return false
	}
	return true
}

// vcpusFor resolves DefaultVCpus for each instance type, memoised for the
// life of the Service.
func (s *Service) vcpusFor(ctx context.Context, types []string) (map[string]int32, error) {
	var missing []ec2types.InstanceType
	for _, t := range types {
		if _, ok := s.vcpus[t]; !ok {
			missing = append(missing, ec2types.InstanceType(t))
		}
	}

	for start := 0; start < len(missing); start += describeTypesBatch {
		end := min(start+describeTypesBatch, len(missing))
		input := &ec2.DescribeInstanceTypesInput{InstanceTypes: missing[start:end]}
		for {
			out, err := s.ec2.DescribeInstanceTypes(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("describe instance types: %w", err)
			}
			for _, info := range out.InstanceTypes {
				if info.VCpuInfo == nil {
					continue
				}
				s.vcpus[string(info.InstanceType)] = aws.ToInt32(info.VCpuInfo.DefaultVCpus)
			}
			if aws.ToString(out.NextToken) == "" {
				break
			}
			input.NextToken = out.NextToken
		}
	}

	result := make(map[string]int32, len(types))
	for _, t := range types {
		v, ok := s.vcpus[t]
		if !ok {
			return nil, fmt.Errorf("describe instance types: no vCPU info for %q", t)
		}
		result[t] = v
	}
	return result, nil
}
