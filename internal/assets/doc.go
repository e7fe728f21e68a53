// Package assets provides the HTML template and CSS style used by the
// Chrome report renderer.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver tries the custom FilesystemLoader first and falls back to
// EmbeddedLoader when the asset is not found, so a directory may override
// only the style and keep the built-in template.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── report.css
//	└── templates/
//	    └── report.html
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
