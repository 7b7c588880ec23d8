// Package challenge checks the anti-abuse token the registration form carries.
package challenge

import (
	"context"
	"fmt"

	recaptcha "cloud.google.com/go/recaptchaenterprise/v2/apiv1"
	recaptchapb "cloud.google.com/go/recaptchaenterprise/v2/apiv1/recaptchaenterprisepb"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperrors "barista-web/pkg/common/errors"
)

// Verifier scores a challenge token for the given action.
type Verifier interface {
	Verify(ctx context.Context, token, action string) (float64, error)
}

// NopVerifier accepts every token. Used when the challenge is disabled.
type NopVerifier struct{}

func (NopVerifier) Verify(context.Context, string, string) (float64, error) {
	return 1, nil
}

type assessFunc func(ctx context.Context, req *recaptchapb.CreateAssessmentRequest) (*recaptchapb.Assessment, error)

// RecaptchaVerifier asks reCAPTCHA Enterprise for a risk assessment.
type RecaptchaVerifier struct {
	projectID string
	siteKey   string
	minScore  float64
	assess    assessFunc
	close     func() error
}

// NewRecaptchaVerifier dials the reCAPTCHA Enterprise API with the ambient
// Google credentials. Close releases the connection.
func NewRecaptchaVerifier(ctx context.Context, projectID, siteKey string, minScore float64) (*RecaptchaVerifier, error) {
	client, err := recaptcha.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create recaptcha client: %w", err)
	}

	v := newRecaptchaVerifier(projectID, siteKey, minScore,
		func(ctx context.Context, req *recaptchapb.CreateAssessmentRequest) (*recaptchapb.Assessment, error) {
			return client.CreateAssessment(ctx, req)
		})
	v.close = client.Close
	return v, nil
}

func newRecaptchaVerifier(projectID, siteKey string, minScore float64, assess assessFunc) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		projectID: projectID,
		siteKey:   siteKey,
		minScore:  minScore,
		assess:    assess,
	}
}

func (v *RecaptchaVerifier) Verify(ctx context.Context, token, action string) (float64, error) {
	resp, err := v.assess(ctx, &recaptchapb.CreateAssessmentRequest{
		Parent: fmt.Sprintf("projects/%s", v.projectID),
		Assessment: &recaptchapb.Assessment{
			Event: &recaptchapb.Event{
				Token:   token,
				SiteKey: v.siteKey,
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("create assessment: %w", err)
	}

	props := resp.GetTokenProperties()
	if !props.GetValid() {
		return 0, apperrors.NewChallengeRejected(map[string]any{
			"reason": props.GetInvalidReason().String(),
		})
	}
	if props.GetAction() != action {
		return 0, apperrors.NewChallengeRejected(map[string]any{
			"reason":   "action mismatch",
			"expected": action,
			"actual":   props.GetAction(),
		})
	}

	score := float64(resp.GetRiskAnalysis().GetScore())
	if score < v.minScore {
		hlog.CtxInfof(ctx, "potential bot found (score: %v)", score)
		return score, apperrors.NewChallengeRejected(map[string]any{"score": score})
	}
	return score, nil
}

func (v *RecaptchaVerifier) Close() error {
	if v.close == nil {
		return nil
	}
	return v.close()
}
