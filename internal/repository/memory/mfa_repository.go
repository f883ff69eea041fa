package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// MfaChallenge is a pending email OTP sign-in. It lives only in memory; a
// restart simply forces the user to sign in again.
type MfaChallenge struct {
	ChallengeId string
	UserId      string
	OTPHash     string
	Attempts    int
	CreatedAt   time.Time
}

type MfaRepository struct {
	cache *cache.Cache
}

func NewMfaRepository(ttl time.Duration) *MfaRepository {
	return &MfaRepository{
		cache: cache.New(ttl, 5*time.Minute),
	}
}

func (r *MfaRepository) Save(challenge *MfaChallenge) {
	r.cache.Set(challenge.ChallengeId, challenge, cache.DefaultExpiration)
}

func (r *MfaRepository) Get(challengeId string) (*MfaChallenge, bool) {
	if x, found := r.cache.Get(challengeId); found {
		return x.(*MfaChallenge), true
	}
	return nil, false
}

func (r *MfaRepository) Delete(challengeId string) {
	r.cache.Delete(challengeId)
}
