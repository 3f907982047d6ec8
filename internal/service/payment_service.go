package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/iyoadidey/mother-julie/internal/entity"
)

var paymentLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var ErrVerificationFailed = errors.New("payment verification failed")

// gcashNumberRe matches Philippine mobile numbers as entered in the GCash
// form (09XXXXXXXXX).
var gcashNumberRe = regexp.MustCompile(`^09\d{9}$`)

const verificationTTL = 1 * time.Hour

type VerifyRequest struct {
	Method    entity.PaymentMethod `json:"method"`
	Account   string               `json:"account"`
	Name      string               `json:"name"`
	Bank      string               `json:"bank,omitempty"`
	Reference string               `json:"reference,omitempty"`
}

type VerifyResult struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

// Verifier checks an online payment. The production system has no real
// gateway integration; StubVerifier stands in deterministically and the
// interface is the seam a real integration would fill.
type Verifier interface {
	Verify(ctx context.Context, req *VerifyRequest) (*VerifyResult, error)
}

// StubVerifier accepts any request whose details pass local format checks.
// Failures are retryable by re-invoking verification.
type StubVerifier struct{}

func (StubVerifier) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	switch req.Method {
	case entity.PaymentGCash:
		if req.Account == "" || req.Name == "" {
			return &VerifyResult{Message: "Please fill in all GCash details"}, nil
		}
		if !gcashNumberRe.MatchString(req.Account) {
			return &VerifyResult{Message: "Please enter a valid GCash mobile number (09XXXXXXXXX)"}, nil
		}
		return &VerifyResult{Verified: true, Message: "GCash payment verified successfully!"}, nil
	case entity.PaymentBank:
		if req.Bank == "" || req.Reference == "" || req.Name == "" {
			return &VerifyResult{Message: "Please fill in all bank transfer details"}, nil
		}
		return &VerifyResult{Verified: true, Message: "Bank transfer verified successfully!"}, nil
	}
	return nil, fmt.Errorf("%w: method %q is not verifiable", ErrVerificationFailed, req.Method)
}

// PaymentService wraps a Verifier with a one-hour result cache so repeated
// checks of the same payment do not re-verify.
type PaymentService struct {
	verifier Verifier
	rdb      *redis.Client
}

func NewPaymentService(verifier Verifier, rdb *redis.Client) *PaymentService {
	return &PaymentService{verifier: verifier, rdb: rdb}
}

func (s *PaymentService) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	key := verificationKey(req)

	if os.Getenv("ENV") != "test" {
		val, err := s.rdb.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			paymentLogger.Error().Err(err).Msg("Error reading verification cache")
		}
		if val == "verified" {
			return &VerifyResult{Verified: true, Message: "Payment already verified"}, nil
		}
	}

	result, err := s.verifier.Verify(ctx, req)
	if err != nil {
		return nil, err
	}

	if result.Verified && os.Getenv("ENV") != "test" {
		if err := s.rdb.Set(ctx, key, "verified", verificationTTL).Err(); err != nil {
			paymentLogger.Error().Err(err).Msg("Error caching verification result")
		}
	}
	return result, nil
}

// verificationKey identifies a payment by method, reference and account
// holder. The name is part of the key so a different holder reusing the same
// number or reference is verified on its own.
func verificationKey(req *VerifyRequest) string {
	ref := req.Account
	if req.Method == entity.PaymentBank {
		ref = strings.ToLower(req.Bank) + ":" + req.Reference
	}
	return fmt.Sprintf("payment:verified:%s:%s:%s", req.Method, ref, strings.ToLower(req.Name))
}
