package utils

import (
	"encoding/json"

	"github.com/tradehq/backflow/internal/transfer"
)

// EncodeTokenRef seals an OAuth token for the oauth_token_ref column.
func EncodeTokenRef(tok *transfer.OAuthToken, key []byte) (string, error) {
	b, err := json.Marshal(tok)
	if err != nil {
		return "", err
	}
	return Encrypt(b, key)
}

func DecodeTokenRef(ref string, key []byte) (*transfer.OAuthToken, error) {
	plain, err := Decrypt(ref, key)
	if err != nil {
		return nil, err
	}
	var tok transfer.OAuthToken
	if err := json.Unmarshal([]byte(plain), &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}
