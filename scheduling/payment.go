package scheduling

import (
	"context"
	"fmt"

	"github.com/sarthakjain/careslot/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// PaymentGate charges the patient for a validated reservation. It is an
// external collaborator: the registry never talks to the provider directly,
// it only records the outcome via ConfirmPayment.
type PaymentGate interface {
	Charge(ctx context.Context, res *models.Reservation) (string, error)
}

// StripeGate settles reservations through Stripe PaymentIntents.
type StripeGate struct {
	logger *zap.Logger
}

func NewStripeGate(apiKey string, logger *zap.Logger) *StripeGate {
	stripe.Key = apiKey
	return &StripeGate{logger: logger}
}

func (g *StripeGate) Charge(ctx context.Context, res *models.Reservation) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(res.Price * 100)),
		Currency: stripe.String(string(stripe.CurrencyEUR)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{
			"reservation_id": fmt.Sprintf("%d", res.ID),
			"patient_id":     fmt.Sprintf("%d", res.PatientID),
		},
	}
	params.Context = ctx

	intent, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("stripe charge failed",
			zap.Uint("reservation_id", res.ID),
			zap.Error(err))
		return "", fmt.Errorf("payment failed for reservation %d: %w", res.ID, err)
	}

	g.logger.Info("stripe payment intent created",
		zap.Uint("reservation_id", res.ID),
		zap.String("intent_id", intent.ID))
	return intent.ID, nil
}
