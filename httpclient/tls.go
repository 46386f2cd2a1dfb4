package httpclient

import "github.com/kbukum/podscribe/security"

// TLSConfig is the shared security TLS configuration.
type TLSConfig = security.TLSConfig
