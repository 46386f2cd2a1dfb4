// Package security holds the TLS settings for podscribe's outbound HTTP
// clients.
//
//	cfg := security.TLSConfig{
//	    CAFile:   "/etc/podscribe/ca.pem",
//	    CertFile: "/etc/podscribe/client.pem",
//	    KeyFile:  "/etc/podscribe/client-key.pem",
//	}
//
//	tlsConfig, err := cfg.Build()
package security
