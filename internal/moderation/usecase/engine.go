package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"
	"unicode"

	"github.com/RZKGWIXX/March/config"
	"github.com/RZKGWIXX/March/internal/moderation"
	"github.com/RZKGWIXX/March/internal/moderation/model"
	roommodel "github.com/RZKGWIXX/March/internal/room/model"
	"github.com/RZKGWIXX/March/pkg/errors"
	"github.com/RZKGWIXX/March/pkg/logger"
)

var urlRe = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)

// counterIdleTTL bounds how long the per-sender window and violation
// counters outlive the sender's last message. A spammer who comes back
// after this long starts a fresh escalation run.
const counterIdleTTL = time.Hour

// Engine evaluates the moderation gates for every inbound message. The spam
// window and violation counters are process-wide shared state guarded by one
// mutex so two pipeline runs for the same nickname cannot race past them.
type Engine struct {
	repo   moderation.Repository
	users  moderation.UserDirectory
	cfg    *config.Config
	logger *logger.Logger

	mu         sync.Mutex
	windows    map[string][]time.Time
	violations map[string]int
	lastSeen   map[string]time.Time

	loginLimiter *moderation.Limiter

	now func() time.Time
}

func NewEngine(ctx context.Context, repo moderation.Repository, users moderation.UserDirectory, cfg *config.Config, logger *logger.Logger) *Engine {
	e := &Engine{
		repo:       repo,
		users:      users,
		cfg:        cfg,
		logger:     logger,
		windows:    make(map[string][]time.Time),
		violations: make(map[string]int),
		lastSeen:   make(map[string]time.Time),
		loginLimiter: moderation.NewLimiter(ctx,
			cfg.RateLimit.LoginAttempts,
			time.Duration(cfg.RateLimit.LoginWindowSeconds)*time.Second),
		now: time.Now,
	}
	go e.cleanup(ctx)
	return e
}

// cleanup drops counters for senders idle past counterIdleTTL so the
// in-memory maps do not grow with every nickname ever seen.
func (e *Engine) cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pruneIdle()
		}
	}
}

func (e *Engine) pruneIdle() {
	e.mu.Lock()
	defer e.mu.Unlock()
	cutoff := e.now().Add(-counterIdleTTL)
	for nick, last := range e.lastSeen {
		if last.Before(cutoff) {
			delete(e.windows, nick)
			delete(e.violations, nick)
			delete(e.lastSeen, nick)
		}
	}
}

// Check runs the gates in order: identity, rate, content heuristics,
// auto-mute escalation, ban, mute, general-room rules.
func (e *Engine) Check(ctx context.Context, roomName, nick, text string) error {
	exists, err := e.users.Exists(ctx, nick)
	if err != nil {
		return err
	}
	if !exists {
		return moderation.Reject(moderation.ReasonAccountGone, "account no longer exists")
	}

	if reason := e.checkFrequency(nick); reason != "" {
		return e.escalate(ctx, nick, reason)
	}
	if reason := contentReason(text); reason != "" {
		return e.escalate(ctx, nick, reason)
	}

	if rej, err := e.activeBan(ctx, nick); err != nil {
		return err
	} else if rej != nil {
		return rej
	}

	if rej, err := e.activeMute(ctx, roomName, nick); err != nil {
		return err
	} else if rej != nil {
		return rej
	}

	if roomName == roommodel.General {
		runes := []rune(text)
		if len(runes) > 500 {
			return moderation.Reject(moderation.ReasonTooLong, "message too long")
		}
		// Legacy general-chat rule, weaker than the RepeatedChars
		// heuristic above but still checked on its own.
		if len(runes) > 10 && distinctRunes(runes) < 3 {
			return moderation.Reject(moderation.ReasonSpamDetected, "spam detected")
		}
	}

	return nil
}

// checkFrequency enforces the sliding window. The rejected message is not
// enqueued into the window.
func (e *Engine) checkFrequency(nick string) moderation.Reason {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.lastSeen[nick] = now
	cutoff := now.Add(-time.Duration(e.cfg.Moderation.SpamWindowSeconds) * time.Second)

	window := e.windows[nick]
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= e.cfg.Moderation.SpamMaxMessages {
		e.windows[nick] = kept
		return moderation.ReasonTooFast
	}
	e.windows[nick] = append(kept, now)
	return ""
}

// escalate counts a spam violation and, at the configured threshold,
// installs a general-room mute, resets the counter, and overrides the
// per-gate reason with AutoMuted.
func (e *Engine) escalate(ctx context.Context, nick string, reason moderation.Reason) error {
	e.mu.Lock()
	e.violations[nick]++
	escalated := e.violations[nick] >= e.cfg.Moderation.AutoMuteViolations
	if escalated {
		e.violations[nick] = 0
	}
	e.mu.Unlock()

	if !escalated {
		return moderation.Reject(reason, "")
	}

	minutes := e.cfg.Moderation.AutoMuteMinutes
	if err := e.Mute(ctx, roommodel.General, nick, minutes, "auto-moderation"); err != nil {
		e.logger.Warn("failed to persist auto-mute", "nick", nick, "err", err)
	}
	return &moderation.Rejection{
		Reason:           moderation.ReasonAutoMuted,
		Message:          "muted for repeated spam",
		RemainingMinutes: minutes,
	}
}

func contentReason(text string) moderation.Reason {
	runes := []rune(text)
	n := len(runes)

	if n > 10 && distinctRunes(runes) < 4 {
		return moderation.ReasonRepeatedChars
	}

	if n > 20 {
		var letters, upper int
		for _, r := range runes {
			if unicode.IsLetter(r) {
				letters++
				if unicode.IsUpper(r) {
					upper++
				}
			}
		}
		if letters > 0 && float64(upper)/float64(letters) > 0.7 {
			return moderation.ReasonExcessiveCaps
		}
	}

	if len(urlRe.FindAllStringIndex(text, -1)) > 2 {
		return moderation.ReasonTooManyLinks
	}
	return ""
}

func distinctRunes(runes []rune) int {
	set := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		set[r] = struct{}{}
	}
	return len(set)
}

// activeBan matches on nickname only; in-session messages do not re-resolve
// the sender's IP.
func (e *Engine) activeBan(ctx context.Context, nick string) (*moderation.Rejection, error) {
	doc, err := e.repo.Bans(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now().Unix()
	for _, ban := range doc.Users {
		if ban.Username != nick || !ban.ActiveAt(now) {
			continue
		}
		return &moderation.Rejection{
			Reason:  moderation.ReasonBanned,
			Message: fmt.Sprintf("you are banned: %s", ban.Reason),
			Until:   ban.Until,
		}, nil
	}
	return nil, nil
}

// activeMute lazily deletes an expired entry instead of rejecting.
func (e *Engine) activeMute(ctx context.Context, roomName, nick string) (*moderation.Rejection, error) {
	doc, err := e.repo.Mutes(ctx)
	if err != nil {
		return nil, err
	}
	mute, ok := doc[roomName][nick]
	if !ok {
		return nil, nil
	}

	now := e.now().Unix()
	if !mute.ActiveAt(now) {
		delete(doc[roomName], nick)
		if len(doc[roomName]) == 0 {
			delete(doc, roomName)
		}
		if err := e.repo.SaveMutes(ctx, doc); err != nil {
			e.logger.Warn("failed to drop expired mute", "room", roomName, "nick", nick, "err", err)
		}
		return nil, nil
	}

	remaining := int((mute.UntilTimestamp-now)/60) + 1
	return &moderation.Rejection{
		Reason:           moderation.ReasonMuted,
		Message:          "you are muted in this room",
		RemainingMinutes: remaining,
	}, nil
}

func (e *Engine) LoginAllowed(ip string) bool {
	return e.loginLimiter.Allow(ip)
}

// LoginBan matches either nickname or IP, unlike the in-session check.
func (e *Engine) LoginBan(ctx context.Context, nick, ip string) (*model.Ban, error) {
	doc, err := e.repo.Bans(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now().Unix()
	for _, ban := range doc.Users {
		if (ban.Username == nick || (ip != "" && ban.IP == ip)) && ban.ActiveAt(now) {
			b := ban
			return &b, nil
		}
	}
	return nil, nil
}

func (e *Engine) Ban(ctx context.Context, username, reason string, durationHours int, by string) (*model.Ban, error) {
	if username == "" || reason == "" {
		return nil, errors.InvalidArg("username and reason required")
	}

	ip, err := e.users.IP(ctx, username)
	if err != nil {
		return nil, err
	}

	now := e.now()
	ban := model.Ban{
		Username: username,
		IP:       ip,
		Reason:   reason,
		BannedAt: now.Unix(),
		BannedBy: by,
	}
	if durationHours == -1 {
		ban.Until = "Permanent"
		ban.UntilTimestamp = -1
	} else {
		until := now.Add(time.Duration(durationHours) * time.Hour)
		ban.Until = until.Format("2006-01-02 15:04:05")
		ban.UntilTimestamp = until.Unix()
	}

	doc, err := e.repo.Bans(ctx)
	if err != nil {
		return nil, err
	}
	// Replace any existing ban for the same identity.
	kept := doc.Users[:0]
	for _, b := range doc.Users {
		if b.Username != username && (ip == "" || b.IP != ip) {
			kept = append(kept, b)
		}
	}
	doc.Users = append(kept, ban)

	if err := e.repo.SaveBans(ctx, doc); err != nil {
		return nil, err
	}
	return &ban, nil
}

func (e *Engine) Unban(ctx context.Context, username string) error {
	doc, err := e.repo.Bans(ctx)
	if err != nil {
		return err
	}
	kept := doc.Users[:0]
	for _, b := range doc.Users {
		if b.Username != username {
			kept = append(kept, b)
		}
	}
	doc.Users = kept
	return e.repo.SaveBans(ctx, doc)
}

func (e *Engine) ActiveBans(ctx context.Context) ([]model.Ban, error) {
	doc, err := e.repo.Bans(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now().Unix()
	active := make([]model.Ban, 0, len(doc.Users))
	for _, b := range doc.Users {
		if b.ActiveAt(now) {
			active = append(active, b)
		}
	}
	return active, nil
}

func (e *Engine) Mute(ctx context.Context, roomName, nick string, minutes int, by string) error {
	if minutes <= 0 {
		return errors.InvalidArg("mute duration must be positive")
	}
	doc, err := e.repo.Mutes(ctx)
	if err != nil {
		return err
	}
	if doc[roomName] == nil {
		doc[roomName] = make(map[string]model.Mute)
	}
	doc[roomName][nick] = model.Mute{
		UntilTimestamp:  e.now().Add(time.Duration(minutes) * time.Minute).Unix(),
		By:              by,
		DurationMinutes: minutes,
	}
	return e.repo.SaveMutes(ctx, doc)
}

func (e *Engine) Unmute(ctx context.Context, roomName, nick string) error {
	doc, err := e.repo.Mutes(ctx)
	if err != nil {
		return err
	}
	if doc[roomName] == nil {
		return nil
	}
	delete(doc[roomName], nick)
	if len(doc[roomName]) == 0 {
		delete(doc, roomName)
	}
	return e.repo.SaveMutes(ctx, doc)
}
