package test

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gympal-app/backend/internal"
	"github.com/gympal-app/backend/internal/config"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/suite"
)

const (
	serverPort = 9000
	serverHost = "127.0.0.1"

	testEmail    = "testuser@gympal.app"
	testPassword = "testpass"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

// Define the suite, and absorb the built-in basic suite
// functionality from testify - including a T() method which
// returns the current testing context
type IntegrationTestSuite struct {
	suite.Suite

	DB          *sql.DB
	redisClient *redis.Client
	dockerPool  *dockertest.Pool
	server      *internal.Server
	teardown    []func()
}

// In order for 'go test' to run this suite, we need to create
// a normal test function and pass our suite to suite.Run
func TestIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}

// runs before all tests are executed
func (s *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()
	fmt.Println("setting up test suite...")

	s.teardown = make([]func(), 0)

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	var err error
	s.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}
	fmt.Println("dockertest pool created")

	// uses pool to try to connect to Docker
	if err = s.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}
	fmt.Println("dockertest pool ping successful")

	redisPort, err := s.redisSetup(ctx)
	if err != nil {
		s.cleanup()
		log.Fatalf("failed to setup redis: %s", err)
	}
	fmt.Println("redis setup successful")

	pgPort, err := s.postgresSetup(ctx)
	if err != nil {
		s.cleanup()
		log.Fatalf("failed to setup postgres: %s", err)
	}
	fmt.Println("postgres setup successful")

	cfg := getTestConfig(redisPort, pgPort)
	s.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			OpenRouterAPIKey:        "test",
			VersionInfo:             "test-version-info",
			RedisPassword:           "",
			HoneycombTracingEnabled: false,
		},
	)
	if err != nil {
		s.cleanup()
		log.Fatalf("new server: %s", err)
	}
	fmt.Println("server created")

	s.server.Serve(ctx, cfg.Host, cfg.Port)
	fmt.Println("server started")

	// the listener comes up asynchronously, wait for it
	// before creating the test user
	if err := s.dockerPool.Retry(func() error {
		resp, err := http.Get(serverEndpoint + "/")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected root status: %d", resp.StatusCode)
		}
		return nil
	}); err != nil {
		s.cleanup()
		log.Fatalf("server not reachable: %s", err)
	}

	if err := s.registerTestUser(); err != nil {
		s.cleanup()
		log.Fatalf("failed to register test user: %s", err)
	}
	fmt.Println("test user registered")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.cleanup()
}

func (s *IntegrationTestSuite) cleanup() {
	fmt.Println(" --> cleaning up test suite...")
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			fmt.Printf(" --> test suite db close error: %s\n", err)
		}
	}
	fmt.Println(" --> test suite db closed")
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			fmt.Printf(" --> test suite redis close error: %s\n", err)
		}
	}
	if s.server != nil {
		s.server.GracefulShutdown()
	}
	fmt.Println(" --> test suite server shut down")
	for _, teardown := range s.teardown {
		teardown()
	}
	fmt.Println(" --> test suite cleanup done")
}

func (s *IntegrationTestSuite) registerTestUser() error {
	registerReqBody := fmt.Sprintf(`{"email": %q, "password": %q}`, testEmail, testPassword)
	resp, err := http.Post(
		serverEndpoint+"/a/register",
		"application/json",
		bytes.NewBufferString(registerReqBody),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected register status: %d", resp.StatusCode)
	}
	return nil
}

// redisDataCleanup wipes redis so that previously made requests do not
// eat into the rate limiting budget of the test that comes next
func (s *IntegrationTestSuite) redisDataCleanup(ctx context.Context) error {
	return s.redisClient.FlushAll(ctx).Err()
}

func getTestConfig(redisPort, postgresPort string) *config.Config {
	return &config.Config{
		Host:                        serverHost,
		Port:                        serverPort,
		RedisHost:                   "localhost",
		RedisPort:                   redisPort,
		PostgresHost:                "localhost",
		PostgresPort:                postgresPort,
		PostgresDBName:              "gympal",
		LoginRateLimitAllowedPerMin: 10,
		CoachRateLimitAllowedPerMin: 10,
		// the whole socket dir is removed on server shutdown,
		// so it must not point at the temp dir root
		BackupUnixSocketAddrDir:  filepath.Join(os.TempDir(), "gympal-backup-test"),
		BackupUnixSocketFileName: "gympal-backup-test.sock",
	}
}

func (s *IntegrationTestSuite) redisSetup(ctx context.Context) (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := redisResource.Close(); err != nil {
			fmt.Printf("redis teardown: %s\n", err)
		}
	})

	redisPort := redisResource.GetPort("6379/tcp")
	s.redisClient = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("localhost:%s", redisPort),
	})

	if err := s.dockerPool.Retry(func() error {
		return s.redisClient.Ping(ctx).Err()
	}); err != nil {
		return "", fmt.Errorf("ping redis: %s", err)
	}

	return redisPort, nil
}

func (s *IntegrationTestSuite) postgresSetup(ctx context.Context) (string, error) {
	pgResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "12",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=gympal",
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		if err := pgResource.Close(); err != nil {
			fmt.Printf("postgres teardown: %s\n", err)
		}
	})

	pgPort := pgResource.GetPort("5432/tcp")
	dsn := fmt.Sprintf(
		"postgres://postgres@localhost:%s/gympal?sslmode=disable",
		pgPort,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return "", fmt.Errorf("open db: %w", err)
	}
	s.DB = db

	if err := s.dockerPool.Retry(db.Ping); err != nil {
		return "", fmt.Errorf("connect to db: %s", err)
	}

	res, err := db.ExecContext(ctx, initSQL)
	if err != nil {
		return "", fmt.Errorf("run init script: %s", err)
	}

	rowsAffected, _ := res.RowsAffected()
	log.Printf("postgres setup result: %d\n", rowsAffected)

	return pgPort, nil
}

const initSQL = `
CREATE TABLE public.users
(
    id            VARCHAR PRIMARY KEY,
    email         VARCHAR     NOT NULL UNIQUE,
    password_hash VARCHAR     NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL
);

ALTER TABLE public.users OWNER TO postgres;

CREATE TABLE public.exercise
(
    id                   VARCHAR PRIMARY KEY,
    name                 VARCHAR     NOT NULL,
    kind                 VARCHAR     NOT NULL,
    primary_body_parts   VARCHAR[]   NOT NULL,
    secondary_body_parts VARCHAR[]   NOT NULL DEFAULT '{}',
    category             VARCHAR     NOT NULL DEFAULT '',
    instructions         TEXT        NOT NULL DEFAULT '',
    image                VARCHAR     NOT NULL DEFAULT '',
    is_custom            BOOLEAN     NOT NULL DEFAULT FALSE,
    user_id              VARCHAR,
    created_at           TIMESTAMPTZ NOT NULL
);

ALTER TABLE public.exercise OWNER TO postgres;
CREATE INDEX ix_exercise_name ON public.exercise (LOWER(name));

CREATE TABLE public.template
(
    id         VARCHAR PRIMARY KEY,
    user_id    VARCHAR     NOT NULL,
    name       VARCHAR     NOT NULL,
    notes      TEXT        NOT NULL DEFAULT '',
    exercises  JSONB       NOT NULL DEFAULT '[]',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

ALTER TABLE public.template OWNER TO postgres;
CREATE INDEX ix_template_user_created_at ON public.template (user_id, created_at);

CREATE TABLE public.planned_workout
(
    id                  VARCHAR PRIMARY KEY,
    user_id             VARCHAR     NOT NULL,
    date                VARCHAR     NOT NULL,
    name                VARCHAR     NOT NULL,
    template_id         VARCHAR,
    type                VARCHAR     NOT NULL DEFAULT '',
    notes               VARCHAR     NOT NULL DEFAULT '',
    status              VARCHAR     NOT NULL,
    position            INTEGER     NOT NULL DEFAULT 0,
    is_recurring        BOOLEAN     NOT NULL DEFAULT FALSE,
    recurrence_type     VARCHAR     NOT NULL DEFAULT '',
    recurrence_days     INTEGER[],
    recurrence_end_date VARCHAR     NOT NULL DEFAULT '',
    created_at          TIMESTAMPTZ NOT NULL
);

ALTER TABLE public.planned_workout OWNER TO postgres;
CREATE INDEX ix_planned_workout_user_date ON public.planned_workout (user_id, date);

CREATE TABLE public.workout
(
    id          VARCHAR PRIMARY KEY,
    user_id     VARCHAR     NOT NULL,
    template_id VARCHAR,
    name        VARCHAR     NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    ended_at    TIMESTAMPTZ,
    notes       TEXT        NOT NULL DEFAULT '',
    exercises   JSONB       NOT NULL DEFAULT '[]',
    created_at  TIMESTAMPTZ NOT NULL
);

ALTER TABLE public.workout OWNER TO postgres;
CREATE INDEX ix_workout_user_created_at ON public.workout (user_id, created_at);

CREATE TABLE public.pr
(
    id            VARCHAR PRIMARY KEY,
    user_id       VARCHAR          NOT NULL,
    exercise_id   VARCHAR          NOT NULL,
    weight        DOUBLE PRECISION NOT NULL,
    reps          INTEGER          NOT NULL,
    estimated_1rm DOUBLE PRECISION NOT NULL,
    date          TIMESTAMPTZ      NOT NULL
);

ALTER TABLE public.pr OWNER TO postgres;
CREATE INDEX ix_pr_user_exercise ON public.pr (user_id, exercise_id);

CREATE TABLE public.profile
(
    id               VARCHAR PRIMARY KEY,
    user_id          VARCHAR     NOT NULL UNIQUE,
    sex              VARCHAR,
    date_of_birth    TIMESTAMPTZ,
    height_cm        DOUBLE PRECISION,
    weight_kg        DOUBLE PRECISION,
    training_age     VARCHAR,
    goals            TEXT,
    injury_history   TEXT,
    strengths        TEXT,
    weaknesses       TEXT,
    background_story TEXT,
    updated_at       TIMESTAMPTZ NOT NULL
);

ALTER TABLE public.profile OWNER TO postgres;

CREATE TABLE public.profile_insights
(
    id              VARCHAR PRIMARY KEY,
    user_id         VARCHAR     NOT NULL UNIQUE,
    injury_tags     TEXT[]      NOT NULL DEFAULT '{}',
    current_issues  TEXT[]      NOT NULL DEFAULT '{}',
    strength_tags   TEXT[]      NOT NULL DEFAULT '{}',
    weak_point_tags TEXT[]      NOT NULL DEFAULT '{}',
    training_phases JSONB       NOT NULL DEFAULT '[]',
    psych_profile   TEXT,
    updated_at      TIMESTAMPTZ NOT NULL
);

ALTER TABLE public.profile_insights OWNER TO postgres;
`
