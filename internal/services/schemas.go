package services

import "git.home.luguber.info/inful/talentscout/internal/llm"

// Compiled output schemas for the JSON-returning operations. Markdown
// generators (resume, cover letter, prep) are free-form and unvalidated.

var postingSchema = llm.CompileSchema("posting.json", `{
  "type": "object",
  "required": ["company", "title"],
  "properties": {
    "company": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1},
    "location": {"type": "string"},
    "url": {"type": "string"},
    "summary": {"type": "string"}
  }
}`)

var scoutSchema = llm.CompileSchema("scout.json", `{
  "type": "object",
  "required": ["companies"],
  "properties": {
    "companies": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "website": {"type": "string"},
          "careers_url": {"type": "string"},
          "size": {"type": "string"},
          "reason": {"type": "string"}
        }
      }
    }
  }
}`)

var researchSchema = llm.CompileSchema("research.json", `{
  "type": "object",
  "required": ["company", "summary"],
  "properties": {
    "company": {"type": "string", "minLength": 1},
    "summary": {"type": "string", "minLength": 1},
    "signals": {"type": "array", "items": {"type": "string"}},
    "likely_roles": {"type": "array", "items": {"type": "string"}},
    "careers_url": {"type": "string"}
  }
}`)

var profileSchema = llm.CompileSchema("profile.json", `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "headline": {"type": "string"},
    "summary": {"type": "string"},
    "skills": {"type": "array", "items": {"type": "string"}},
    "industries": {"type": "array", "items": {"type": "string"}},
    "seniority": {"type": "string"},
    "locations": {"type": "array", "items": {"type": "string"}},
    "years_of_experience": {"type": "integer", "minimum": 0}
  }
}`)

var learnSchema = llm.CompileSchema("learn.json", `{
  "type": "object",
  "properties": {
    "avoid_companies": {"type": "array", "items": {"type": "string"}},
    "avoid_keywords": {"type": "array", "items": {"type": "string"}},
    "prefer_keywords": {"type": "array", "items": {"type": "string"}},
    "prefer_sources": {"type": "array", "items": {"type": "string"}},
    "commentary": {"type": "string"}
  }
}`)
