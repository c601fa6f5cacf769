package gcp

import (
	"strings"

	"google.golang.org/api/option"

	"github.com/learnpulse/learnpulse-backend/internal/platform/envutil"
)

// ClientOptionsFromEnv picks credentials for the media bucket client.
// MEDIA_GCS_CREDENTIALS wins over the generic GOOGLE_APPLICATION_CREDENTIALS_JSON
// and GOOGLE_APPLICATION_CREDENTIALS; each may hold inline JSON or a file
// path. With none set the client uses application default credentials.
func ClientOptionsFromEnv() []option.ClientOption {
	for _, name := range []string{
		"MEDIA_GCS_CREDENTIALS",
		"GOOGLE_APPLICATION_CREDENTIALS_JSON",
		"GOOGLE_APPLICATION_CREDENTIALS",
	} {
		if opts := credentialOptions(envutil.String(name, "")); opts != nil {
			return opts
		}
	}
	return nil
}

func credentialOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	switch {
	case creds == "":
		return nil
	case strings.HasPrefix(creds, "{"):
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	default:
		return []option.ClientOption{option.WithCredentialsFile(creds)}
	}
}
