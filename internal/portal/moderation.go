package portal

import "fmt"

// Approve admits a pending account.
func (s *PortalService) Approve(actor Actor, identity string) error {
	return s.moderate("approve", actor, identity, s.moderator.Approve)
}

// Deny refuses a pending account.
func (s *PortalService) Deny(actor Actor, identity string) error {
	return s.moderate("deny", actor, identity, s.moderator.Deny)
}

// Repend returns a denied account to the pending bucket for reconsideration.
func (s *PortalService) Repend(actor Actor, identity string) error {
	return s.moderate("repend", actor, identity, s.moderator.Repend)
}

func (s *PortalService) moderate(op string, actor Actor, identity string, fn func(Actor, string) error) error {
	if err := fn(actor, identity); err != nil {
		s.logger.Warn("account "+op+" failed", "identity", identity, "by", actor.Identity, "error", err)
		return fmt.Errorf("%s %s: %w", op, identity, err)
	}
	s.logger.Info("account "+op, "identity", identity, "by", actor.Identity)
	return nil
}

// ToggleRole flips an active account between admin and user.
func (s *PortalService) ToggleRole(actor Actor, identity string) (*Principal, error) {
	p, err := s.moderator.ToggleRole(actor, identity)
	if err != nil {
		return nil, fmt.Errorf("toggle role of %s: %w", identity, err)
	}
	s.logger.Info("account role changed", "identity", identity, "role", string(p.Role), "by", actor.Identity)
	return p, nil
}

// ToggleStatus flips an active account between active and inactive.
func (s *PortalService) ToggleStatus(actor Actor, identity string) (*Principal, error) {
	p, err := s.moderator.ToggleStatus(actor, identity)
	if err != nil {
		return nil, fmt.Errorf("toggle status of %s: %w", identity, err)
	}
	s.logger.Info("account status changed", "identity", identity, "status", p.Status, "by", actor.Identity)
	return p, nil
}

// Register enrolls a new account into the pending bucket.
func (s *PortalService) Register(identity, credentialHash string) error {
	if identity == "" || credentialHash == "" {
		return fmt.Errorf("registration needs identity and credential: %w", ErrInvalid)
	}
	p := Principal{
		Identity:       identity,
		CredentialHash: credentialHash,
		Role:           RoleUser,
		Status:         StatusFor(BucketPending),
	}
	if err := s.moderator.Enroll(p); err != nil {
		return fmt.Errorf("registering %s: %w", identity, err)
	}
	s.logger.Info("account registered", "identity", identity)
	return nil
}

// Accounts lists the principals of a bucket.
func (s *PortalService) Accounts(actor Actor, b Bucket) ([]*Principal, error) {
	if err := actor.RequireAdmin("list accounts"); err != nil {
		return nil, err
	}
	return s.moderator.List(b)
}

// Account returns the principal for identity and the bucket holding it.
func (s *PortalService) Account(identity string) (*Principal, Bucket, error) {
	return s.moderator.Locate(identity)
}

// VerifyAccounts reports identities held in more than one bucket.
func (s *PortalService) VerifyAccounts() error {
	return s.moderator.Verify()
}
