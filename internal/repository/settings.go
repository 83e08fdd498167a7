package repository

import "context"

// Well-known settings keys. The storefront persists the same handful of user
// preferences a browser client would keep in local storage.
const (
	SettingBackendURL      = "backend_url"
	SettingAuthToken       = "auth_token"
	SettingLocale          = "locale"
	SettingSelectedStoreID = "selected_store_id"
)

// SettingsStore is a scoped key-value store for user settings. Reads miss
// with ErrNotFound; both directions are explicitly fallible so callers
// decide how to degrade, rather than reading ambient global state.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
