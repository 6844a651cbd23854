package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var errBadCookie = errors.New("session cookie failed authentication")

func (s *Store) encode(values map[string]any) (string, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}

	payload := base64.RawURLEncoding.EncodeToString(data)
	return payload + "." + s.mac(payload), nil
}

func (s *Store) decode(value string) (map[string]any, error) {
	payload, sig, ok := strings.Cut(value, ".")
	if !ok {
		return nil, errBadCookie
	}
	if !hmac.Equal([]byte(s.mac(payload)), []byte(sig)) {
		return nil, errBadCookie
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, errBadCookie
	}

	values := map[string]any{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errBadCookie
	}
	return values, nil
}

func (s *Store) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
