// Command radex runs reproducible radiomics classification experiments:
// loading a labeled cohort, extracting and caching features, filtering
// feature columns, and classifying over repeated stratified rounds. All
// intermediate and final entities are content-addressed JSON artifacts; runs
// are indexed in SQLite for later inspection.
package main
