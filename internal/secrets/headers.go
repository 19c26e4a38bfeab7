package secrets

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/99designs/keyring"

	clierrors "github.com/salmonumbrella/apiform/internal/errors"
	"github.com/salmonumbrella/apiform/internal/source"
)

const keyPrefix = "header:"

// itemKey is "header:<profile>:<name>". Profile names may not contain ':'.
func itemKey(profile, name string) string {
	return keyPrefix + profile + ":" + name
}

func validate(profile, name string) error {
	if strings.TrimSpace(profile) == "" {
		return &clierrors.ValidationError{Field: "profile", Message: "cannot be empty"}
	}
	if strings.Contains(profile, ":") {
		return &clierrors.ValidationError{Field: "profile", Message: "cannot contain ':'"}
	}
	if strings.TrimSpace(name) == "" {
		return &clierrors.ValidationError{Field: "header", Message: "cannot be empty"}
	}
	return nil
}

func open() (KeyringProvider, error) {
	provider, err := defaultProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return provider, nil
}

// StoreHeader saves a header value for profile.
func StoreHeader(profile, name, value string) error {
	if err := validate(profile, name); err != nil {
		return err
	}
	if value == "" {
		return &clierrors.ValidationError{Field: "value", Message: "cannot be empty"}
	}

	provider, err := open()
	if err != nil {
		return err
	}
	err = provider.Set(keyring.Item{
		Key:   itemKey(profile, name),
		Label: fmt.Sprintf("apiform %s header %s", profile, name),
		Data:  []byte(value),
	})
	if err != nil {
		return fmt.Errorf("failed to store header in keyring: %w", err)
	}
	return nil
}

// GetHeader returns a stored header value.
func GetHeader(profile, name string) (string, error) {
	if err := validate(profile, name); err != nil {
		return "", err
	}
	provider, err := open()
	if err != nil {
		return "", err
	}
	item, err := provider.Get(itemKey(profile, name))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", clierrors.NewUserError(
			fmt.Sprintf("header %q is not stored for profile %q", name, profile),
			fmt.Sprintf("Run: apiform header set %s %s <value>", profile, name),
		)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read header from keyring: %w", err)
	}
	return string(item.Data), nil
}

// DeleteHeader removes a stored value. A missing value is not an error.
func DeleteHeader(profile, name string) error {
	if err := validate(profile, name); err != nil {
		return err
	}
	provider, err := open()
	if err != nil {
		return err
	}
	err = provider.Remove(itemKey(profile, name))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete header from keyring: %w", err)
	}
	return nil
}

// LoadProfile returns the stored pairs for names, in the given order.
func LoadProfile(profile string, names []string) (source.HeaderPairs, error) {
	pairs := make(source.HeaderPairs, 0, len(names))
	for _, name := range names {
		value, err := GetHeader(profile, name)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, source.HeaderPair{Key: name, Value: value})
	}
	return pairs, nil
}

// StoredProfiles lists profile -> header names as found in the keyring.
// Used to spot values the config file no longer references.
func StoredProfiles() (map[string][]string, error) {
	provider, err := open()
	if err != nil {
		return nil, err
	}
	keys, err := provider.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keyring items: %w", err)
	}

	out := make(map[string][]string)
	for _, key := range keys {
		rest, ok := strings.CutPrefix(key, keyPrefix)
		if !ok {
			continue
		}
		profile, name, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		out[profile] = append(out[profile], name)
	}
	for profile := range out {
		sort.Strings(out[profile])
	}
	return out, nil
}
