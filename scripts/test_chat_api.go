package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
)

// Manual smoke test against a running server:
//   go run scripts/test_chat_api.go
// Creates a room, joins it, flips the active flag and exercises the mail
// opt-out endpoints.

const baseURL = "http://localhost:8080/api"

type envelope struct {
	Error bool            `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func get(path string, params url.Values) (*envelope, error) {
	resp, err := http.Get(baseURL + path + "?" + params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("bad envelope %q: %w", body, err)
	}
	return &env, nil
}

func alnum(length int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	out := make([]byte, length)
	for i := range out {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		out[i] = alphabet[n.Int64()]
	}
	return string(out)
}

func authProof(token string) (string, int64) {
	now := time.Now().UnixMilli()
	sum := sha256.Sum256([]byte(token + strconv.FormatInt(now, 10)))
	return hex.EncodeToString(sum[:]), now
}

func check(step string, err error, env *envelope) {
	if err != nil {
		color.Red("FAIL %s: %v", step, err)
		os.Exit(1)
	}
	if env.Error {
		color.Red("FAIL %s: server returned error envelope", step)
		os.Exit(1)
	}
	color.Green("OK   %s -> %s", step, string(env.Data))
}

func main() {
	color.Cyan("== chat API smoke test ==")

	env, err := get("/chat/new", url.Values{"chatName": {"Smoke Test"}})
	check("create room", err, env)
	var roomId string
	json.Unmarshal(env.Data, &roomId)

	userId := alnum(128)
	env, err = get("/chat/join", url.Values{
		"chatId":   {roomId},
		"userId":   {userId},
		"userName": {"smoke"},
	})
	check("join room", err, env)
	var token string
	json.Unmarshal(env.Data, &token)

	hash, now := authProof(token)
	env, err = get("/chat/active", url.Values{
		"chatId": {roomId},
		"userId": {userId},
		"hash":   {hash},
		"time":   {strconv.FormatInt(now, 10)},
		"active": {"false"},
	})
	check("deactivate member", err, env)

	address := "smoke@example.com"
	env, err = get("/mail/unsubscribe", url.Values{"address": {address}})
	check("unsubscribe", err, env)

	env, err = get("/mail/isunsubscribed", url.Values{"address": {address}})
	check("check opt-out", err, env)

	env, err = get("/mail/resubscribe", url.Values{"address": {address}})
	check("resubscribe", err, env)

	color.Cyan("== all checks passed ==")
}
