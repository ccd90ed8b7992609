package setup

import (
	"fmt"

	"github.com/itchan-dev/forum/backend/internal/access"
	"github.com/itchan-dev/forum/backend/internal/events"
	"github.com/itchan-dev/forum/backend/internal/handler"
	"github.com/itchan-dev/forum/backend/internal/search"
	"github.com/itchan-dev/forum/backend/internal/service"
	"github.com/itchan-dev/forum/backend/internal/storage/pg"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/jwt"
	mw "github.com/itchan-dev/forum/shared/middleware"
	sharedpg "github.com/itchan-dev/forum/shared/storage/pg"
)

// Dependencies holds everything the router and the CLI need.
type Dependencies struct {
	Config         *config.Config
	Storage        *pg.Storage
	Policy         *access.Policy
	Searcher       *search.Searcher
	Events         *events.Dispatcher
	Handler        *handler.Handler
	Jwt            jwt.JwtService
	AuthMiddleware *mw.Auth
}

// NewPolicy builds the visibility policy from the configuration.
func NewPolicy(cfg *config.Config) (*access.Policy, error) {
	rename, err := access.ParseRenameSetting(cfg.Public.AllowRenaming)
	if err != nil {
		return nil, err
	}
	return access.NewPolicy(rename, access.Hooks{}), nil
}

// NewSearcher registers the gambits in precedence order. The fulltext gambit
// receives whatever no other gambit claimed.
func NewSearcher(cfg *config.Config, storage *pg.Storage, policy *access.Policy) *search.Searcher {
	gambits := search.NewGambitManager(
		search.NewUnreadGambit(storage),
		search.NewHiddenGambit(),
		search.NewAuthorGambit(storage),
	)
	gambits.SetFulltextGambit(search.NewDriverGambit(storage))
	return search.NewSearcher(gambits, storage, storage, policy, search.Options{
		RelevantPostsPerDiscussion: cfg.Public.RelevantPostsPerDiscussion,
		ExcerptLength:              cfg.Public.ExcerptLength,
	})
}

// SetupDependencies connects to the database and wires the services.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	storage, err := pg.Open(cfg, policy, sharedpg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}

	dispatcher := events.NewDispatcher()
	service.NewDiscussionMetadataUpdater(storage).Subscribe(dispatcher)

	searcher := NewSearcher(cfg, storage, policy)
	discussion := service.NewDiscussion(storage, searcher, policy, dispatcher)
	post := service.NewPost(storage, policy, dispatcher)
	read := service.NewRead(storage, dispatcher)

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Policy:         policy,
		Searcher:       searcher,
		Events:         dispatcher,
		Handler:        handler.New(discussion, post, read, cfg, storage),
		Jwt:            jwtService,
		AuthMiddleware: mw.NewAuth(jwtService, storage, cfg.Public.SecureCookies),
	}, nil
}
