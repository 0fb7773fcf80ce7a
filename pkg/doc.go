// Package pkg provides the core libraries for chaincfg.
//
// # Overview
//
// Chaincfg audits pip requirements manifests against a dependency policy
// and serves Safe chain configuration data. The pkg directory is organized
// into a small number of focused areas:
//
//  1. [manifest] and [pep440] - Requirements parsing and version semantics
//  2. [registry] and [cache] - PyPI metadata fetching with cache backends
//  3. [resolver] and [dag] - Transitive dependency resolution and graphs
//  4. [audit] - Policy checks producing structured reports
//  5. [errors] and [observability] - Shared error codes and hooks
//
// # Architecture
//
// The typical data flow through a full audit:
//
//	requirements.txt
//	         ↓
//	manifest.Parse → resolver.Resolve (PyPI via registry + cache)
//	         ↓
//	audit.Run → Report (lint, pin verification, conflict checks)
//
// The dag package carries the resolved graph and can export it as DOT,
// SVG or PNG. Service-side packages under internal/ reuse the same
// building blocks behind the HTTP API.
package pkg
