package embedding

// MeanPool averages token vectors from a [seqLen, dims] hidden state, counting only positions where mask is set.
func MeanPool(hidden []float32, mask []int64, seqLen, dims int) []float32 {
	out := make([]float32, dims)
	var count float32
	for pos := 0; pos < seqLen && pos < len(mask); pos++ {
		if mask[pos] == 0 {
			continue
		}
		row := hidden[pos*dims : (pos+1)*dims]
		for i, v := range row {
			out[i] += v
		}
		count++
	}
	if count == 0 {
		return out
	}
	for i := range out {
		out[i] /= count
	}
	return out
}
