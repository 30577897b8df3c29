// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"testing"

	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCheckpointArchitecture(t *testing.T) {
	ctx := context.New()
	ctx.SetParam(ParamArchitecture, "vit")
	require.NoError(t, VerifyCheckpointArchitecture(ctx, ViT))

	err := VerifyCheckpointArchitecture(ctx, Swin)
	require.Error(t, err, "a vit checkpoint must not load as swin")
	assert.Contains(t, err.Error(), "vit")
	assert.Contains(t, err.Error(), "swin")

	// Checkpoints predating the architecture parameter are accepted.
	assert.NoError(t, VerifyCheckpointArchitecture(context.New(), Swin))
}
