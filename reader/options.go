package reader

// Option configures NewDocument
type Option func(*options)

type options struct {
	password   string
	repair     bool
	cacheLimit int
}

func defaultOptions() options {
	return options{repair: true}
}

// WithPassword sets the password tried as the user and then the owner
// password of an encrypted document.
func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

// WithRepair enables or disables rebuilding a damaged cross-reference
// table by scanning the file (default: enabled).
func WithRepair(repair bool) Option {
	return func(o *options) {
		o.repair = repair
	}
}

// WithCacheLimit bounds the number of cached objects. When the limit is
// reached the cache is cleared. Zero means unlimited.
func WithCacheLimit(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.cacheLimit = n
		}
	}
}
