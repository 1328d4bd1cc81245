// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the client-side projections of backend-owned
// entities: conversations, messages, model descriptors, and query sources.
//
// All entities here are created and destroyed exclusively by the backend.
// The client holds read-through caches and never assumes a local write has
// taken effect until a subsequent fetch confirms it.
package model
