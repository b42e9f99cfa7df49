// Package svm fits a binary support vector classifier with an RBF kernel.
//
// The solver is sequential minimal optimisation with second order working
// set selection, the same scheme used by libsvm for C-SVC. Labels are any
// two distinct values: the lower one is the negative class and the higher
// one the positive class, so a positive decision score predicts the higher
// label.
//
// Features are expected to be standardised first; see FitScaler.
package svm
