package auth

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"sort"
)

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// GET /.well-known/jwks.json
func (e *Emissor) JWKSHandler(w http.ResponseWriter, r *http.Request) {
	kids := make([]string, 0, len(e.pubs))
	for k := range e.pubs {
		kids = append(kids, k)
	}
	sort.Strings(kids)

	keys := make([]jwk, 0, len(kids))
	for _, kid := range kids {
		pub := e.pubs[kid]
		keys = append(keys, jwk{
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			Kid: kid,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_ = json.NewEncoder(w).Encode(struct {
		Keys []jwk `json:"keys"`
	}{Keys: keys})
}
