// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package fileutil writes files atomically.
//
// AtomicWriteFile writes to a uniquely named temp file in the target
// directory, syncs it, applies the requested permissions and renames it into
// place, retrying the rename a few times. Config files that may contain broker
// credentials are written with SecretFilePermission.
package fileutil
