// Package telegram verifies Telegram WebApp init data.
//
// The init data is a query string signed by Telegram with a key derived
// from the bot token:
//
//	secret = HMAC_SHA256(key="WebAppData", msg=botToken)
//	hash   = hex(HMAC_SHA256(key=secret, msg=dataCheckString))
//
// where dataCheckString is every field except hash, sorted by key and
// joined as key=value lines.
package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxAge is how long a signed payload stays acceptable.
const DefaultMaxAge = 24 * time.Hour

var (
	ErrInvalidSignature = errors.New("invalid init data signature")
	ErrExpired          = errors.New("init data is too old")
	ErrMissingUser      = errors.New("init data has no user")
	ErrMalformed        = errors.New("malformed init data")
)

// WebAppUser is the user object embedded in init data as JSON.
type WebAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

// InitData is a verified payload.
type InitData struct {
	QueryID    string
	User       WebAppUser
	AuthDate   time.Time
	StartParam string
}

// Validator checks init data against one bot token.
type Validator struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewValidator(botToken string, maxAge time.Duration) *Validator {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Validator{
		secret: secretKey(botToken),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

func secretKey(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

func dataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	return strings.Join(lines, "\n")
}

func sign(secret []byte, values url.Values) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate verifies the signature, the age and the embedded user of raw.
func (v *Validator) Validate(raw string) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, ErrMalformed
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInvalidSignature
	}
	expected := sign(v.secret, values)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(hash))) {
		return nil, ErrInvalidSignature
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrExpired
	}
	if v.now().Unix()-authDate > int64(v.maxAge/time.Second) {
		return nil, ErrExpired
	}

	rawUser := values.Get("user")
	if rawUser == "" {
		return nil, ErrMissingUser
	}
	var user WebAppUser
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil || user.ID == 0 {
		return nil, ErrMissingUser
	}

	return &InitData{
		QueryID:    values.Get("query_id"),
		User:       user,
		AuthDate:   time.Unix(authDate, 0).UTC(),
		StartParam: values.Get("start_param"),
	}, nil
}

// Sign produces a signed init data string for the given fields. The
// server never needs it; it exists for local tooling and tests.
func Sign(botToken string, values url.Values) string {
	signed := url.Values{}
	for k, vs := range values {
		if k == "hash" {
			continue
		}
		signed[k] = vs
	}
	signed.Set("hash", sign(secretKey(botToken), signed))
	return signed.Encode()
}

// SignUser builds and signs init data for user at authDate.
func SignUser(botToken string, user WebAppUser, authDate time.Time) (string, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	values := url.Values{}
	values.Set("user", string(raw))
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	return Sign(botToken, values), nil
}

// WebAppURL is the t.me link that opens the mini app.
func WebAppURL(botUsername, startParam string) string {
	base := "https://t.me/" + botUsername + "/app"
	if startParam == "" {
		return base
	}
	return base + "?startapp=" + url.QueryEscape(startParam)
}
