// Package main provides the qobuzdl CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/OrfiDev/orpheusdl-qobuz/internal/core"
	httpserver "github.com/OrfiDev/orpheusdl-qobuz/internal/http"
	"github.com/OrfiDev/orpheusdl-qobuz/internal/metadata"
	"github.com/OrfiDev/orpheusdl-qobuz/internal/qobuz"
	"github.com/OrfiDev/orpheusdl-qobuz/internal/store"
	"github.com/OrfiDev/orpheusdl-qobuz/pkg/qobuzlink"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger

	searchLimit int
	searchISRC  string
)

var rootCmd = &cobra.Command{
	Use:   "qobuzdl",
	Short: "Qobuz catalog adapter",
	Long: `qobuzdl resolves Qobuz track, album, playlist, artist and label metadata
into normalized records and resolves stream URLs at a requested quality tier.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("app-id", "", "Qobuz app id")
	rootCmd.PersistentFlags().String("app-secret", "", "Qobuz app secret")
	rootCmd.PersistentFlags().String("quality", "hifi", "quality tier (low, medium, high, lossless, hifi)")
	rootCmd.PersistentFlags().String("quality-format", "{sample_rate}kHz {bit_depth}bit", "album quality string template")
	rootCmd.PersistentFlags().String("settings-path", "./qobuzdl_settings.db", "settings store path")
	rootCmd.PersistentFlags().Int("cache-size", store.DefaultCacheSize, "track cache capacity")
	rootCmd.PersistentFlags().Bool("metrics", false, "serve prometheus metrics while running")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "metrics server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "metrics server port")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchISRC, "isrc", "", "search by ISRC before falling back to the query")

	rootCmd.AddCommand(
		loginCmd,
		trackCmd,
		albumCmd,
		playlistCmd,
		artistCmd,
		labelCmd,
		creditsCmd,
		searchCmd,
		urlCmd,
	)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("QOBUZDL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	var err error
	config, err = buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger = buildLogger(config.Log.Level)
}

func buildConfig() (*core.Config, error) {
	cfg := core.DefaultConfig()

	cfg.Qobuz.AppID = viper.GetString("app-id")
	cfg.Qobuz.AppSecret = viper.GetString("app-secret")

	tier, err := core.ParseQualityTier(viper.GetString("quality"))
	if err != nil {
		return nil, err
	}
	cfg.Quality.Tier = tier
	cfg.Quality.Format = viper.GetString("quality-format")

	cfg.Store.SettingsPath = viper.GetString("settings-path")
	if cfg.Store.SettingsPath == "" {
		cfg.Store.SettingsPath = "./qobuzdl_settings.db"
	}
	cfg.Store.CacheSize = viper.GetInt("cache-size")

	cfg.Server.Enabled = viper.GetBool("metrics")
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	cfg.Server.Port = viper.GetInt("server-port")

	cfg.Log.Level = viper.GetString("log-level")

	return cfg, nil
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func validateConfig() error {
	if config.Qobuz.AppID == "" {
		return fmt.Errorf("app id is required")
	}
	if config.Qobuz.AppSecret == "" {
		return fmt.Errorf("app secret is required")
	}
	return nil
}

// session bundles the collaborators a single invocation needs.
type session struct {
	settings   *store.Settings
	client     *qobuz.Client
	cache      *store.TrackCache
	normalizer *metadata.Normalizer
	server     *httpserver.Server
}

func newSession() (*session, error) {
	if err := validateConfig(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	settings, err := store.OpenSettings(config.Store.SettingsPath)
	if err != nil {
		return nil, err
	}

	client := qobuz.NewClient(&config.Qobuz, logger.Named("qobuz"))
	token, err := settings.Read("token")
	if err != nil {
		_ = settings.Close()
		return nil, err
	}
	if token != "" {
		client.SetAuthToken(token)
	}

	cache, err := store.NewTrackCache(config.Store.CacheSize)
	if err != nil {
		_ = settings.Close()
		return nil, err
	}

	s := &session{
		settings:   settings,
		client:     client,
		cache:      cache,
		normalizer: metadata.NewNormalizer(client, cache, config.Quality, logger.Named("metadata")),
	}

	if config.Server.Enabled {
		s.server = httpserver.NewServer(&config.Server, logger.Named("http"))
		client.SetRecorder(s.server)
		cache.SetRecorder(s.server)
	}

	return s, nil
}

func (s *session) close() {
	if err := s.settings.Close(); err != nil {
		logger.Warn("Failed to close settings store", zap.Error(err))
	}
}

// withSession runs one operation with a live session. When metrics are
// enabled the server runs alongside the operation under an errgroup and is
// shut down once the work finishes, mirroring the usual serve-and-wait
// main loop.
func withSession(fn func(ctx context.Context, s *session) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	if s.server == nil {
		return fn(ctx, s)
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.server.Start(gCtx)
	})

	g.Go(func() error {
		defer cancel()
		err := fn(gCtx, s)
		s.server.SetCacheSize(s.cache.Len())
		return err
	})

	return g.Wait()
}

// resolveID accepts either a bare catalog id or a Qobuz URL of the
// expected media type.
func resolveID(expected core.MediaType, arg string) (string, error) {
	if !qobuzlink.CanResolve(arg) {
		return arg, nil
	}
	link, err := qobuzlink.Parse(arg)
	if err != nil {
		return "", err
	}
	if link.Type != expected {
		return "", fmt.Errorf("expected a %s URL, got %s", expected, link.Type)
	}
	return link.ID, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Authenticate and persist the session token",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *session) error {
			token, err := s.client.Login(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if err := s.settings.Set("token", token); err != nil {
				return err
			}
			logger.Info("Login successful")
			return nil
		})
	},
}

var trackCmd = &cobra.Command{
	Use:   "track <id|url>",
	Short: "Resolve track metadata and a stream URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *session) error {
			id, err := resolveID(core.MediaTypeTrack, args[0])
			if err != nil {
				return err
			}
			info, err := s.normalizer.TrackInfo(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(info)
		})
	},
}

var albumCmd = &cobra.Command{
	Use:   "album <id|url>",
	Short: "Resolve album metadata and its track ids",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *session) error {
			id, err := resolveID(core.MediaTypeAlbum, args[0])
			if err != nil {
				return err
			}
			info, err := s.normalizer.AlbumInfo(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(info)
		})
	},
}

var playlistCmd = &cobra.Command{
	Use:   "playlist <id|url>",
	Short: "Resolve playlist metadata and its track ids",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *session) error {
			id, err := resolveID(core.MediaTypePlaylist, args[0])
			if err != nil {
				return err
			}
			info, err := s.normalizer.PlaylistInfo(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(info)
		})
	},
}

var artistCmd = &cobra.Command{
	Use:   "artist <id|url>",
	Short: "Resolve artist metadata and album ids",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *session) error {
			id, err := resolveID(core.MediaTypeArtist, args[0])
			if err != nil {
				return err
			}
			info, err := s.normalizer.ArtistInfo(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(info)
		})
	},
}

var labelCmd = &cobra.Command{
	Use:   "label <id|url>",
	Short: "Resolve label metadata and album ids",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *session) error {
			id, err := resolveID(core.MediaTypeLabel, args[0])
			if err != nil {
				return err
			}
			info, err := s.normalizer.LabelInfo(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(info)
		})
	},
}

var creditsCmd = &cobra.Command{
	Use:   "credits <id|url>",
	Short: "List a track's contributor credits by role",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withSession(func(ctx context.Context, s *session) error {
			id, err := resolveID(core.MediaTypeTrack, args[0])
			if err != nil {
				return err
			}
			credits, err := s.normalizer.TrackCredits(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(credits)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <type> <query>",
	Short: "Search the catalog for tracks, albums, playlists, artists or labels",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		mediaType, err := core.ParseMediaType(args[0])
		if err != nil {
			return err
		}
		query := strings.Join(args[1:], " ")

		return withSession(func(ctx context.Context, s *session) error {
			results, err := s.normalizer.Search(ctx, mediaType, query, searchISRC, searchLimit)
			if err != nil {
				return err
			}
			return printJSON(results)
		})
	},
}

var urlCmd = &cobra.Command{
	Use:   "url <link>",
	Short: "Classify a Qobuz URL into a media type and id",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		link, err := qobuzlink.Parse(args[0])
		if err != nil {
			return err
		}
		return printJSON(map[string]string{
			"type": link.Type.String(),
			"id":   link.ID,
		})
	},
}
