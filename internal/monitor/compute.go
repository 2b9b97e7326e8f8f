package monitor

import (
	"math"
	"sort"

	"github.com/mlforge/modelops/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// classificationMetrics scores binary predictions against {0,1}-style
// labels. Predictions are thresholded at 0.5; AUC is computed from
// probabilities when given.
func classificationMetrics(predictions, labels, probabilities []float64) *models.ClassificationMetrics {
	positive := positiveClass(labels)

	var tp, fp, tn, fn float64
	for i := range predictions {
		predPositive := predictions[i] >= 0.5
		actualPositive := labels[i] == positive
		switch {
		case predPositive && actualPositive:
			tp++
		case predPositive && !actualPositive:
			fp++
		case !predPositive && actualPositive:
			fn++
		default:
			tn++
		}
	}

	out := &models.ClassificationMetrics{}
	total := tp + fp + tn + fn
	if total > 0 {
		out.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		out.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		out.Recall = tp / (tp + fn)
	}
	if out.Precision+out.Recall > 0 {
		out.F1 = 2 * out.Precision * out.Recall / (out.Precision + out.Recall)
	}

	if len(probabilities) == len(labels) && len(probabilities) > 0 {
		auc := rocAUC(probabilities, labels, positive)
		out.AUC = &auc
	}
	return out
}

func regressionMetrics(predictions, labels []float64) *models.RegressionMetrics {
	n := float64(len(predictions))

	var sumSq, sumAbs float64
	for i := range predictions {
		diff := predictions[i] - labels[i]
		sumSq += diff * diff
		sumAbs += math.Abs(diff)
	}

	out := &models.RegressionMetrics{
		MSE: sumSq / n,
		MAE: sumAbs / n,
	}
	out.RMSE = math.Sqrt(out.MSE)

	mean := stat.Mean(labels, nil)
	var totalSq float64
	for _, l := range labels {
		d := l - mean
		totalSq += d * d
	}
	if totalSq > 0 {
		out.R2 = 1 - sumSq/totalSq
	}
	return out
}

// misclassified counts predictions landing on the wrong side of the
// threshold, using the same 0.5 cut as classificationMetrics.
func misclassified(predictions, labels []float64) int {
	positive := positiveClass(labels)
	var wrong int
	for i := range predictions {
		if (predictions[i] >= 0.5) != (labels[i] == positive) {
			wrong++
		}
	}
	return wrong
}

// positiveClass picks the larger of the two distinct label values so
// {0,1}, {-1,1} and {1,2} encodings all behave.
func positiveClass(labels []float64) float64 {
	positive := labels[0]
	for _, l := range labels[1:] {
		if l > positive {
			positive = l
		}
	}
	return positive
}

// rocAUC is the Mann-Whitney rank formulation of the area under the ROC
// curve, with the midrank correction for tied scores.
func rocAUC(scores, labels []float64, positive float64) float64 {
	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, len(scores))
	for i := range scores {
		pairs[i] = pair{score: scores[i], pos: labels[i] == positive}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	var posRankSum float64
	var nPos, nNeg float64
	i := 0
	for i < len(pairs) {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		// ranks are 1-based; ties share the midrank
		midrank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if pairs[k].pos {
				posRankSum += midrank
				nPos++
			} else {
				nNeg++
			}
		}
		i = j
	}

	if nPos == 0 || nNeg == 0 {
		return 0.5
	}
	return (posRankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}
