package registry

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"

	orasauth "oras.land/oras-go/v2/registry/remote/auth"
)

// AuthMode selects how requests to the registry are authenticated.
type AuthMode string

const (
	AuthNone   AuthMode = "none"
	AuthBasic  AuthMode = "basic"
	AuthBearer AuthMode = "bearer"
	AuthMTLS   AuthMode = "mtls"
)

// AuthConfig configures a Client's transport and credentials.
type AuthConfig struct {
	Mode      AuthMode
	Username  string
	Password  string
	Token     string
	PlainHTTP bool

	ClientCertFile string
	ClientKeyFile  string
	CAFile         string
}

func (c AuthConfig) credentialFunc() func(context.Context, string) (orasauth.Credential, error) {
	switch c.Mode {
	case AuthBasic:
		return orasauth.StaticCredential("", orasauth.Credential{Username: c.Username, Password: c.Password})
	case AuthBearer:
		return orasauth.StaticCredential("", orasauth.Credential{RefreshToken: c.Token})
	default:
		return func(context.Context, string) (orasauth.Credential, error) {
			return orasauth.EmptyCredential, nil
		}
	}
}

func (c AuthConfig) httpClient() (*http.Client, error) {
	if c.Mode != AuthMTLS {
		return http.DefaultClient, nil
	}

	cert, err := tls.LoadX509KeyPair(c.ClientCertFile, c.ClientKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if c.CAFile != "" {
		caPEM, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA bundle: %w", err)
		}
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no certificates parsed from %s", c.CAFile)
		}
	}

	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				RootCAs:      pool,
				MinVersion:   tls.VersionTLS12,
			},
		},
	}, nil
}
