package config

import (
	"os"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

const exampleConfig = `# sitebuilder configuration
project:
  root: .
  sources:
    - path: content
      recurse: true
  extensions:
    html: [.html]
    markdown: [.md]
    static: [.css, .js, .png, .jpg, .svg]

output:
  directory: site
  clean: true
  trim: false

# Referenced as <$title/> or attr="$title" in documents.
variables:
  title: My Site
  author: ${USER}

links:
  enabled: true

math:
  enabled: false
  binary: katex
  # version: 0.16.9

highlight:
  enabled: true
  theme: monokai

markdown:
  enabled: true

build:
  workers: 4

watch:
  debounce: 500ms
  # interval: 1h

# metrics:
#   listen: ":9090"

# history:
#   path: .sitebuilder/history.db

# events:
#   nats_url: nats://localhost:4222
#   subject: sitebuilder.builds

# source:
#   url: https://github.com/example/site.git
#   branch: main
#   directory: .sitebuilder/checkout
#   retries: 2
#   backoff: exponential
#   retry_delay: 1s

logging:
  level: info
  format: text
`

// Init writes an example configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext(errors.ContextPath, configPath).
			Build()
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext(errors.ContextPath, configPath).
			Build()
	}
	return nil
}
