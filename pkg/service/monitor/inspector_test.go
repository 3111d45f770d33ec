// ML Maid Core
// Copyright (c) 2026 The ML Maid Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ML Maid Core.
//
// ML Maid Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ML Maid Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ML Maid Core.  If not, see <http://www.gnu.org/licenses/>.

package monitor

import (
	"context"
	"testing"

	"github.com/mlmaid/mlmaid-core/pkg/procinspect"
	"github.com/mlmaid/mlmaid-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestInstrumented_PassesThrough(t *testing.T) {
	t.Parallel()

	inner := &mocks.MockInspector{}
	recs := []procinspect.ProcessRecord{{PID: 7, Name: "a.exe", Path: "/g/a.exe"}}
	inner.On("ListProcesses", mock.Anything).Return(recs)
	inner.On("Running", mock.Anything, []int{7}).Return([]int{7})
	inner.On("FindByNames", mock.Anything, []string{"a.exe"}).Return(recs)

	i := instrumented{inner: inner}
	ctx := context.Background()
	assert.Equal(t, recs, i.ListProcesses(ctx))
	assert.Equal(t, []int{7}, i.Running(ctx, []int{7}))
	assert.Equal(t, recs, i.FindByNames(ctx, []string{"a.exe"}))

	assert.Nil(t, i.Running(ctx, nil))
	inner.AssertNumberOfCalls(t, "Running", 1)
	inner.AssertExpectations(t)
}
