package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	sqtypes "github.com/aws/aws-sdk-go-v2/service/servicequotas/types"
	"github.com/aws/smithy-go"
)

// ErrRequestPending is returned when AWS already has an open increase request for the quota.
var ErrRequestPending = errors.New("an increase request for this quota is already pending")

// EC2API is the subset of the EC2 client used to count vCPUs.
type EC2API interface {
	ec2.DescribeInstancesAPIClient
	DescribeInstanceTypes(ctx context.Context, params *ec2.DescribeInstanceTypesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstanceTypesOutput, error)
}

// ServiceQuotasAPI is the subset of the Service Quotas client used to read and raise quotas.
type ServiceQuotasAPI interface {
	GetServiceQuota(ctx context.Context, params *servicequotas.GetServiceQuotaInput, optFns ...func(*servicequotas.Options)) (*servicequotas.GetServiceQuotaOutput, error)
	GetAWSDefaultServiceQuota(ctx context.Context, params *servicequotas.GetAWSDefaultServiceQuotaInput, optFns ...func(*servicequotas.Options)) (*servicequotas.GetAWSDefaultServiceQuotaOutput, error)
	RequestServiceQuotaIncrease(ctx context.Context, params *servicequotas.RequestServiceQuotaIncreaseInput, optFns ...func(*servicequotas.Options)) (*servicequotas.RequestServiceQuotaIncreaseOutput, error)
	GetRequestedServiceQuotaChange(ctx context.Context, params *servicequotas.GetRequestedServiceQuotaChangeInput, optFns ...func(*servicequotas.Options)) (*servicequotas.GetRequestedServiceQuotaChangeOutput, error)
	servicequotas.ListRequestedServiceQuotaChangeHistoryByQuotaAPIClient
}

// Describe renders an error for a person at a terminal. AWS API errors are
// reduced to their code and message.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}

func isNoSuchResource(err error) bool {
	var nsr *sqtypes.NoSuchResourceException
	return errors.As(err, &nsr)
}

func isAlreadyExists(err error) bool {
	var rae *sqtypes.ResourceAlreadyExistsException
	return errors.As(err, &rae)
}
