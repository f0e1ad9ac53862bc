package config

import (
	"os"
	"strconv"
)

// rankVars are checked in order; the first one set wins.
var rankVars = []string{
	"OMPI_COMM_WORLD_RANK",
	"PMI_RANK",
	"PMIX_RANK",
	"SLURM_PROCID",
}

// DetectRank returns the rank of this process in a multi-process job, or 0
// when no launcher variable is set or it does not parse.
func DetectRank() int {
	return rankFromEnv(os.LookupEnv)
}

func rankFromEnv(lookup func(string) (string, bool)) int {
	for _, name := range rankVars {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		rank, err := strconv.Atoi(v)
		if err != nil || rank < 0 {
			return 0
		}
		return rank
	}
	return 0
}
