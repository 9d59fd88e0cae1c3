package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ValkeyClient wraps the Valkey connection used for the basic-auth
// lookup cache and the stand availability read path.
type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
	standsTTL    time.Duration
}

func NewValkeyClient() (*ValkeyClient, error) {
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	password := os.Getenv("VALKEY_PASSWORD")
	usersHashKey := os.Getenv("VALKEY_USERS_HASH_KEY")
	if usersHashKey == "" {
		usersHashKey = "users:auth"
	}

	standsTTL := 5 * time.Second
	if val := os.Getenv("VALKEY_STANDS_TTL_SEC"); val != "" {
		if sec, err := strconv.Atoi(val); err == nil && sec > 0 {
			standsTTL = time.Duration(sec) * time.Second
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: usersHashKey,
		standsTTL:    standsTTL,
	}, nil
}

// GetUserByAuth returns the cached (userID, role) for an email/password
// hash pair. The hash field value is "id:role".
func (v *ValkeyClient) GetUserByAuth(ctx context.Context, email, passwordHash string) (int64, string, error) {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))

	val, err := v.client.HGet(ctx, v.usersHashKey, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, "", fmt.Errorf("user not found in cache")
		}
		return 0, "", fmt.Errorf("cache lookup error: %w", err)
	}

	var userID int64
	var role string
	if _, err := fmt.Sscanf(val, "%d:%s", &userID, &role); err != nil {
		return 0, "", fmt.Errorf("invalid auth cache entry: %w", err)
	}

	return userID, role, nil
}

// SetUserAuth stores a verified credential pair so subsequent requests
// skip the database lookup.
func (v *ValkeyClient) SetUserAuth(ctx context.Context, email, passwordHash string, userID int64, role string) error {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))
	return v.client.HSet(ctx, v.usersHashKey, cacheKey, fmt.Sprintf("%d:%s", userID, role)).Err()
}

func standsKey(planID int64) string {
	return fmt.Sprintf("stands:plan:%d", planID)
}

// GetPlanStandsRaw returns the cached stand listing for a plan as raw
// JSON, avoiding an unmarshal/marshal round trip on the hot path.
func (v *ValkeyClient) GetPlanStandsRaw(ctx context.Context, planID int64) ([]byte, error) {
	data, err := v.client.Get(ctx, standsKey(planID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("stands not in cache")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, nil
}

// SetPlanStands caches the stand listing for a plan with a short TTL;
// reservation and release invalidate it explicitly.
func (v *ValkeyClient) SetPlanStands(ctx context.Context, planID int64, stands interface{}) error {
	payload, err := json.Marshal(stands)
	if err != nil {
		return fmt.Errorf("failed to marshal stands: %w", err)
	}
	return v.client.Set(ctx, standsKey(planID), payload, v.standsTTL).Err()
}

// InvalidatePlanStands drops the cached listing after an inventory mutation.
func (v *ValkeyClient) InvalidatePlanStands(ctx context.Context, planID int64) error {
	return v.client.Del(ctx, standsKey(planID)).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
