package llm

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const generativeLanguageScope = "https://www.googleapis.com/auth/generative-language"

// ServiceAccountTokenSource reads a service-account key file and returns a
// token source scoped for the Generative Language API.
func ServiceAccountTokenSource(ctx context.Context, path string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, generativeLanguageScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	return creds.TokenSource, nil
}
