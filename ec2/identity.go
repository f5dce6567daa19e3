package ec2

import (
	"context"
	"subuk/ec2resize/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

type Identity struct {
	Account string
	Arn     string
}

type IdentityChecker struct {
	sts IdentityAPI
}

func NewIdentityChecker(client IdentityAPI) *IdentityChecker {
	return &IdentityChecker{sts: client}
}

// Check validates the configured credentials against STS.
func (checker *IdentityChecker) Check(ctx context.Context) (*Identity, error) {
	out, err := checker.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, util.NewError(err, "bad AWS credentials (%s)", ErrorCode(err))
	}
	return &Identity{Account: aws.ToString(out.Account), Arn: aws.ToString(out.Arn)}, nil
}
