// internal/engine/dynamic/browser.go
package dynamic

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/bounty/internal/config"
	"github.com/law-makers/bounty/internal/engine"
	"github.com/rs/zerolog/log"
)

// Launcher starts a browser engine instance
type Launcher interface {
	Launch(ctx context.Context) (engine.Browser, error)
}

// LauncherFunc adapts a function to the Launcher interface
type LauncherFunc func(ctx context.Context) (engine.Browser, error)

// Launch calls f(ctx)
func (f LauncherFunc) Launch(ctx context.Context) (engine.Browser, error) {
	return f(ctx)
}

// LaunchOptions configures the Chrome instance
type LaunchOptions struct {
	Headless   bool
	ChromePath string
	UserAgent  string
	Proxy      string
	Headers    map[string]string
	ExtraArgs  []chromedp.ExecAllocatorOption
}

// ChromeLauncher launches headless Chrome through chromedp
type ChromeLauncher struct {
	opts LaunchOptions
}

// NewChromeLauncher creates a launcher with the given options
func NewChromeLauncher(opts LaunchOptions) *ChromeLauncher {
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	return &ChromeLauncher{opts: opts}
}

func (l *ChromeLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		// Sandbox flags are required when running as root inside containers
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(l.opts.UserAgent),
	}

	if path := FindChrome(l.opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}

	if l.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	if l.opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(l.opts.Proxy))
	}

	return append(allocOpts, l.opts.ExtraArgs...)
}

// Launch starts Chrome and returns once the browser target is attached.
// The browser lives until Close; ctx only bounds the launch wait.
func (l *ChromeLauncher) Launch(ctx context.Context) (engine.Browser, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	started := make(chan error, 1)
	go func() {
		// The first Run allocates the browser and must not carry a deadline
		started <- chromedp.Run(browserCtx)
	}()

	select {
	case err := <-started:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, fmt.Errorf("failed to start chrome: %w", err)
		}
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chrome launch aborted: %w", ctx.Err())
	}

	log.Debug().Bool("headless", l.opts.Headless).Msg("Chrome started")

	return &chromeBrowser{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		headers:     l.opts.Headers,
	}, nil
}

// chromeBrowser wraps a chromedp browser context with its cancel functions
type chromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	headers     map[string]string
}

// NewPage opens a new tab on the running browser
func (b *chromeBrowser) NewPage(ctx context.Context) (engine.Page, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, fmt.Errorf("browser is gone: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(b.ctx)
	tab := &chromePage{ctx: tabCtx, cancel: tabCancel, headers: b.headers}

	// The first Run creates the tab target; like the browser launch it must use
	// the tab context itself, otherwise the tab dies with the derived context.
	opened := make(chan error, 1)
	go func() {
		opened <- chromedp.Run(tabCtx)
	}()

	select {
	case err := <-opened:
		if err != nil {
			tabCancel()
			return nil, fmt.Errorf("failed to open tab: %w", err)
		}
	case <-ctx.Done():
		tabCancel()
		return nil, ctx.Err()
	}
	return tab, nil
}

// Alive reports whether the browser process is still attached
func (b *chromeBrowser) Alive() bool {
	return b.ctx.Err() == nil
}

// Close shuts down the browser and the allocator
func (b *chromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	return nil
}

// chromePage is one tab; cancelling its context closes the tab
type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	headers map[string]string
}

// run executes actions on the tab, bounded by the caller's ctx
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var dlCancel context.CancelFunc
		runCtx, dlCancel = context.WithDeadline(runCtx, deadline)
		defer dlCancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Load navigates the tab and returns the rendered document HTML
func (p *chromePage) Load(ctx context.Context, url string) (string, error) {
	var html string

	tasks := chromedp.Tasks{}
	if len(p.headers) > 0 {
		headers := network.Headers{}
		for k, v := range p.headers {
			headers[k] = v
		}
		tasks = append(tasks, network.Enable(), network.SetExtraHTTPHeaders(headers))
	}
	tasks = append(tasks,
		navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := p.run(ctx, tasks...); err != nil {
		return "", err
	}
	return html, nil
}

// navigate loads url and returns once the new document fired
// DOMContentLoaded. Images, fonts and other subresources are not awaited.
func navigate(url string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		listenCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		domReady := make(chan struct{}, 1)
		chromedp.ListenTarget(listenCtx, func(ev interface{}) {
			if _, ok := ev.(*page.EventDomContentEventFired); ok {
				select {
				case domReady <- struct{}{}:
				default:
				}
			}
		})

		_, loaderID, errorText, err := page.Navigate(url).Do(ctx)
		if err != nil {
			return err
		}
		if errorText != "" {
			return fmt.Errorf("page load error %s", errorText)
		}
		// Same-document navigations have no loader and fire no DOM event
		if loaderID == "" {
			return nil
		}

		select {
		case <-domReady:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// Close closes the tab
func (p *chromePage) Close() error {
	p.cancel()
	return nil
}
