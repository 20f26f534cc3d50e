// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package handlers

import (
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TFMV/DupeFinder/internal/matcher"
	"github.com/TFMV/DupeFinder/pkg/utils"
)

const batchWorkers = 10

// BatchResult pairs one uploaded listing with its ranked candidates.
type BatchResult struct {
	Address    string              `json:"address"`
	Candidates []matcher.Candidate `json:"candidates"`
}

// BatchResponse is the body of a successful batch match.
type BatchResponse struct {
	RunID   int           `json:"run_id"`
	Results []BatchResult `json:"results"`
}

// MatchBatchHandler accepts a CSV upload of listings, stages it via COPY,
// and scores every row against the stored pool with a bounded worker set.
// loadTable is the staging table batch uploads land in.
func MatchBatchHandler(deps Deps, loadTable string) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			utils.SendError(c, http.StatusBadRequest, err)
			return
		}

		tempFile, err := os.CreateTemp("", "batch-upload-*.csv")
		if err != nil {
			utils.SendError(c, http.StatusInternalServerError, err)
			return
		}
		defer os.Remove(tempFile.Name())
		tempFile.Close()

		if err := c.SaveUploadedFile(file, tempFile.Name()); err != nil {
			utils.SendError(c, http.StatusInternalServerError, err)
			return
		}

		ctx := c.Request.Context()
		if err := deps.Repo.TruncateStaging(ctx, loadTable); err != nil {
			utils.SendError(c, http.StatusInternalServerError, err)
			return
		}
		count, err := deps.Repo.StageCSV(ctx, tempFile.Name(), loadTable)
		if err != nil {
			utils.SendError(c, http.StatusInternalServerError, err)
			return
		}
		deps.Logger.Info("batch staged", zap.Int64("rows", count))

		runID, err := deps.Repo.CreateRun(ctx, "Batch listing dedupe")
		if err != nil {
			utils.SendError(c, http.StatusInternalServerError, err)
			return
		}

		listings, err := deps.Repo.StagedListings(ctx, loadTable)
		if err != nil {
			utils.SendError(c, http.StatusInternalServerError, err)
			return
		}

		results := make([]BatchResult, len(listings))
		var wg sync.WaitGroup
		sem := make(chan struct{}, batchWorkers)
		for i, req := range listings {
			wg.Add(1)
			go func(i int, req matcher.MatchRequest) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				backfillCoordinates(ctx, deps, &req)
				pool, err := CandidatePool(ctx, deps.Repo, deps.Logger, req.Address)
				if err != nil {
					// One failed lookup leaves that listing unmatched, the
					// rest of the batch still completes.
					deps.Logger.Error("candidate pool fetch failed",
						zap.String("address", req.Address), zap.Error(err))
					results[i] = BatchResult{Address: req.Address, Candidates: []matcher.Candidate{}}
					return
				}
				results[i] = BatchResult{
					Address:    req.Address,
					Candidates: deps.Engine.FindMatches(req, pool),
				}
			}(i, req)
		}
		wg.Wait()

		utils.SendJSON(c, http.StatusOK, "batch matches found", BatchResponse{RunID: runID, Results: results})
	}
}
