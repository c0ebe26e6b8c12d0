package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/ironhub/internal/identity"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "ironhub-session||"
	tokensSetKey     = "ironhub-sessions"
)

var ErrSessionNotFound = errors.New("session not found")

type Manager struct {
	redisClient *redis.Client
	resolver    identity.Resolver
	ttl         time.Duration
	// ability to inject the token generator (for unit and dev testing)
	TokenFunc func() string
}

func NewManager(
	ttl time.Duration,
	redisClient *redis.Client,
	resolver identity.Resolver,
) *Manager {
	return &Manager{
		redisClient: redisClient,
		resolver:    resolver,
		ttl:         ttl,
		TokenFunc:   uuid.NewString,
	}
}

// Start opens a session for the given free-text name. The name is only an
// opaque data partition key, resolved through the identity resolver -
// nothing here verifies who the user actually is.
func (m *Manager) Start(ctx context.Context, name string) (Session, error) {
	owner, err := m.resolver.Resolve(name)
	if err != nil {
		return Session{}, fmt.Errorf("resolve owner: %w", err)
	}

	s := Session{
		Token:     m.TokenFunc(),
		Owner:     owner,
		CreatedAt: time.Now(),
	}

	if err := m.save(ctx, s); err != nil {
		return Session{}, err
	}

	if cmd := m.redisClient.SAdd(ctx, tokensSetKey, s.Token); cmd.Err() != nil {
		return Session{}, cmd.Err()
	}

	return s, nil
}

func (m *Manager) Get(ctx context.Context, token string) (Session, error) {
	cmd := m.redisClient.Get(ctx, sessionKeyPrefix+token)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, err
	}

	var s Session
	if err := json.Unmarshal([]byte(cmd.Val()), &s); err != nil {
		return Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	if time.Since(s.CreatedAt) > m.ttl {
		return Session{}, ErrSessionNotFound
	}

	return s, nil
}

// Update rewrites the stored session (onboarding step, last exercise).
func (m *Manager) Update(ctx context.Context, s Session) error {
	if _, err := m.Get(ctx, s.Token); err != nil {
		return err
	}
	return m.save(ctx, s)
}

func (m *Manager) End(ctx context.Context, token string) error {
	if cmd := m.redisClient.Del(ctx, sessionKeyPrefix+token); cmd.Err() != nil {
		return cmd.Err()
	}
	if cmd := m.redisClient.SRem(ctx, tokensSetKey, token); cmd.Err() != nil {
		return cmd.Err()
	}
	return nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (m *Manager) ScanAndClean(ctx context.Context) {
	cmd := m.redisClient.SMembers(ctx, tokensSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! session manager, scan and clean, get sessions: %s", err)
		return
	}

	sessionTokens := cmd.Val()
	if len(sessionTokens) == 0 {
		log.Debugln("=> session manager, scan and clean abort, no sessions")
		return
	}

	log.Debugf("=> session manager, scan and clean [%d sessions] start ...", len(sessionTokens))
	for _, token := range sessionTokens {
		if _, err := m.Get(ctx, token); err == nil {
			continue
		}
		if err := m.End(ctx, token); err != nil {
			log.Errorf("=> session manager, clean token %s: %s", token, err)
		}
	}
}

func (m *Manager) save(ctx context.Context, s Session) error {
	sessionJson, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if cmd := m.redisClient.Set(ctx, sessionKeyPrefix+s.Token, string(sessionJson), 0); cmd.Err() != nil {
		return cmd.Err()
	}
	return nil
}
