package zeroexorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kaifufi/zeroex-order-sdk-go/chain"
	"github.com/kaifufi/zeroex-order-sdk-go/schema"
)

// OrderValidator checks an assembled order and returns its schema errors.
// schema.Validator implements it.
type OrderValidator interface {
	ValidateOrder(order any) []string
}

// SessionConfig holds the collaborators of a Session
type SessionConfig struct {
	NetworkID NetworkID
	Signer    Signer
	Resolver  ExchangeResolver
	Validator OrderValidator
	Reporter  ErrorReporter
	Logger    *zap.Logger
}

// Session owns one order being edited and drives it through
// UNSIGNED -> SIGNING -> SIGNED. At most one sign attempt is in flight.
type Session struct {
	networkID NetworkID
	signer    Signer
	resolver  ExchangeResolver
	validator OrderValidator
	reporter  ErrorReporter
	logger    *zap.Logger

	mu     sync.Mutex
	order  Order
	state  SigningState
	errMsg string
	cycle  uint64
	signed *SignedOrder
}

// NewSession creates a Session editing a copy of order
func NewSession(order Order, config SessionConfig) *Session {
	if config.NetworkID == 0 {
		config.NetworkID = TestnetNetworkID
	}
	if config.Resolver == nil {
		config.Resolver = DefaultExchangeResolver()
	}
	if config.Validator == nil {
		config.Validator = schema.NewValidator()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Reporter == nil {
		config.Reporter = NewLogReporter(config.Logger)
	}

	return &Session{
		networkID: config.NetworkID,
		signer:    config.Signer,
		resolver:  config.Resolver,
		validator: config.Validator,
		reporter:  config.Reporter,
		logger:    config.Logger,
		order:     order.Clone(),
		state:     StateUnsigned,
	}
}

// State returns the current signing state
func (s *Session) State() SigningState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ErrorMessage returns the single user-visible error, empty when none
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Order returns a snapshot of the order being edited
func (s *Session) Order() Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Clone()
}

// SignedOrder returns the last signed order, nil unless SIGNED
func (s *Session) SignedOrder() *SignedOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signed
}

// Update edits the order. Edits are rejected while a sign attempt is in
// flight and discard any previous signature. edit runs on a copy outside the
// session lock, so it may read the session.
func (s *Session) Update(edit func(o *Order)) error {
	s.mu.Lock()
	if s.state == StateSigning {
		s.mu.Unlock()
		return ErrSignInProgress
	}
	draft := s.order.Clone()
	s.mu.Unlock()

	edit(&draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSigning {
		return ErrSignInProgress
	}
	s.order = draft
	s.signed = nil
	s.state = StateUnsigned
	return nil
}

// OrderHash computes the hash of the current order fields
func (s *Session) OrderHash(ctx context.Context) (string, error) {
	snapshot := s.Order()
	exchange, err := s.resolver.ExchangeContract(ctx, s.networkID)
	if err != nil {
		return "", err
	}
	snapshot.ExchangeContract = exchange
	return chain.HashOrder(&snapshot)
}

// Sign hashes the current order, asks the signer for a signature, assembles
// the signed order and validates it. The returned error is a *SigningError,
// or ErrSignInProgress / ErrCancelled.
func (s *Session) Sign(ctx context.Context) (*SignedOrder, error) {
	s.mu.Lock()
	if s.state == StateSigning {
		s.mu.Unlock()
		return nil, ErrSignInProgress
	}

	if err := s.order.ValidateForSigning(); err != nil {
		msg := MsgFixErrors
		if errors.Is(err, chain.ErrInvalidMaker) {
			msg = MsgEnableWallet
		}
		s.state = StateUnsigned
		s.errMsg = msg
		s.signed = nil
		s.mu.Unlock()
		return nil, &SigningError{Kind: KindInvalidOrder, UserMessage: msg, Err: err}
	}

	s.cycle++
	cycle := s.cycle
	s.state = StateSigning
	s.signed = nil
	snapshot := s.order.Clone()
	s.mu.Unlock()

	signed, serr := s.sign(ctx, &snapshot)
	return s.finish(ctx, cycle, signed, serr)
}

// Cancel abandons an in-flight sign attempt. Its eventual result is ignored.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSigning {
		return
	}
	s.cycle++
	s.state = StateUnsigned
	s.logger.Sugar().Infow("Sign request cancelled", "network_id", s.networkID)
}

// Acknowledge closes a signed cycle. A new salt is generated so that signing
// the same logical order again yields a different hash.
func (s *Session) Acknowledge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSigned {
		return ErrNotSigned
	}

	salt, err := chain.GeneratePseudoRandomSalt()
	if err != nil {
		return err
	}
	s.order.Salt = salt
	s.signed = nil
	s.state = StateUnsigned
	return nil
}

func (s *Session) sign(ctx context.Context, order *Order) (*SignedOrder, *SigningError) {
	exchange, err := s.resolver.ExchangeContract(ctx, s.networkID)
	if err != nil {
		if errors.Is(err, ErrMissingExchangeContract) {
			return nil, &SigningError{Kind: KindMissingExchangeContract, UserMessage: MsgMissingExchange, Err: err}
		}
		return nil, &SigningError{Kind: KindUnexpected, UserMessage: MsgUnexpected, Err: fmt.Errorf("resolve exchange contract: %w", err)}
	}
	order.ExchangeContract = exchange
	order.NetworkID = int(s.networkID)

	orderHash, err := chain.HashOrder(order)
	if err != nil {
		if errors.Is(err, ErrEncoding) {
			return nil, &SigningError{Kind: KindEncoding, UserMessage: MsgEncodingFailed, Err: err}
		}
		return nil, &SigningError{Kind: KindHashing, UserMessage: MsgSigningFailed, Err: err}
	}

	s.logger.Sugar().Infow("Requesting order signature",
		"order_hash", orderHash,
		"maker", order.Maker,
		"network_id", s.networkID,
	)

	if s.signer == nil {
		return nil, &SigningError{Kind: KindUnexpected, UserMessage: MsgUnexpected, Err: errors.New("no signer configured")}
	}
	sig, err := s.signer.SignOrderHash(ctx, orderHash)
	if err != nil {
		if chain.DidUserDenyRequest(err) {
			return nil, &SigningError{Kind: KindUserDenied, UserMessage: MsgUserDenied, Err: err}
		}
		return nil, &SigningError{Kind: KindUnexpected, UserMessage: MsgUnexpected, Err: fmt.Errorf("sign order hash %s: %w", orderHash, err)}
	}

	builder, err := chain.NewOrderBuilder(exchange, int(s.networkID))
	if err != nil {
		return nil, &SigningError{Kind: KindUnexpected, UserMessage: MsgUnexpected, Err: err}
	}
	signed, err := builder.BuildSignedOrder(order, orderHash, sig)
	if err != nil {
		return nil, &SigningError{Kind: KindUnexpected, UserMessage: MsgUnexpected, Err: fmt.Errorf("assemble order: %w", err)}
	}

	if errs := s.validator.ValidateOrder(signed); len(errs) > 0 {
		s.logger.Error("Order validation failed",
			zap.String("order_hash", orderHash),
			zap.Strings("errors", errs),
		)
		return nil, &SigningError{
			Kind:             KindValidationFailed,
			UserMessage:      MsgSigningFailed,
			ValidationErrors: errs,
			Err:              fmt.Errorf("%d schema errors: %v", len(errs), errs),
		}
	}

	return signed, nil
}

func (s *Session) finish(ctx context.Context, cycle uint64, signed *SignedOrder, serr *SigningError) (*SignedOrder, error) {
	s.mu.Lock()
	if s.cycle != cycle {
		s.mu.Unlock()
		s.logger.Sugar().Infow("Ignoring result of cancelled sign request", "cycle", cycle)
		return nil, ErrCancelled
	}

	if serr == nil {
		s.state = StateSigned
		s.errMsg = ""
		s.signed = signed
		s.mu.Unlock()
		s.logger.Sugar().Infow("Order signed", "order_hash", signed.Signature.Hash)
		return signed, nil
	}

	s.state = StateUnsigned
	s.errMsg = serr.UserMessage
	s.mu.Unlock()

	if serr.Kind == KindUserDenied {
		s.logger.Sugar().Infow("User denied sign request")
		return nil, serr
	}

	s.logger.Sugar().Errorw("Order signing failed",
		"kind", serr.Kind.String(),
		"error", serr.Err,
	)
	s.reporter.Report(ctx, serr)
	return nil, serr
}

// fail records a user-visible error without changing the signing state
func (s *Session) fail(msg string) {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}
